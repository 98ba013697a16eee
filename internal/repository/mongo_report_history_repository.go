package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spec-kit/civic-reports/internal/domain"
)

type reportHistoryDocument struct {
	ID        string              `bson:"_id"`
	ReportID  string              `bson:"reportId"`
	ChangedBy string              `bson:"changedBy"`
	OldStatus domain.ReportStatus `bson:"oldStatus"`
	NewStatus domain.ReportStatus `bson:"newStatus"`
	Note      string              `bson:"note"`
	CreatedAt time.Time           `bson:"createdAt"`
}

type mongoReportHistoryRepository struct {
	coll *mongo.Collection
}

// NewMongoReportHistoryRepository builds repository.
func NewMongoReportHistoryRepository(coll *mongo.Collection) ReportHistoryRepository {
	return &mongoReportHistoryRepository{coll: coll}
}

func (r *mongoReportHistoryRepository) Create(ctx context.Context, history *domain.ReportHistory) error {
	_, err := r.coll.InsertOne(ctx, reportHistoryDocument{
		ID:        history.ID,
		ReportID:  history.ReportID,
		ChangedBy: history.ChangedBy,
		OldStatus: history.OldStatus,
		NewStatus: history.NewStatus,
		Note:      history.Note,
		CreatedAt: history.CreatedAt,
	})
	return translateMongoError(err)
}

func (r *mongoReportHistoryRepository) ListByReport(ctx context.Context, reportID string) ([]domain.ReportHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"reportId": reportID}, opts)
	if err != nil {
		return nil, translateMongoError(err)
	}
	defer cursor.Close(ctx)

	var docs []reportHistoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateMongoError(err)
	}
	result := make([]domain.ReportHistory, 0, len(docs))
	for _, doc := range docs {
		result = append(result, domain.ReportHistory{
			ID:        doc.ID,
			ReportID:  doc.ReportID,
			ChangedBy: doc.ChangedBy,
			OldStatus: doc.OldStatus,
			NewStatus: doc.NewStatus,
			Note:      doc.Note,
			CreatedAt: doc.CreatedAt,
		})
	}
	return result, nil
}

// DeleteByReport removes the trail of a deleted report; the document store has no cascades.
func (r *mongoReportHistoryRepository) DeleteByReport(ctx context.Context, reportID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"reportId": reportID})
	return translateMongoError(err)
}
