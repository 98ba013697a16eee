package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spec-kit/civic-reports/internal/domain"
)

type reportDocument struct {
	ID                  string              `bson:"_id"`
	UserID              string              `bson:"userId"`
	Location            string              `bson:"location"`
	ProblemType         string              `bson:"problemType"`
	ReceiveNotification bool                `bson:"receiveNotification"`
	Status              domain.ReportStatus `bson:"reportStatus"`
	Note                string              `bson:"note"`
	CreatedAt           time.Time           `bson:"dateCreated"`
	UpdatedAt           time.Time           `bson:"updatedAt"`
}

func newReportDocument(report *domain.Report) reportDocument {
	return reportDocument{
		ID:                  report.ID,
		UserID:              report.UserID,
		Location:            report.Location,
		ProblemType:         report.ProblemType,
		ReceiveNotification: report.ReceiveNotification,
		Status:              report.Status,
		Note:                report.Note,
		CreatedAt:           report.CreatedAt,
		UpdatedAt:           report.UpdatedAt,
	}
}

func (d reportDocument) toDomain() domain.Report {
	return domain.Report{
		ID:                  d.ID,
		UserID:              d.UserID,
		Location:            d.Location,
		ProblemType:         d.ProblemType,
		ReceiveNotification: d.ReceiveNotification,
		Status:              d.Status,
		Note:                d.Note,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

type mongoReportRepository struct {
	coll *mongo.Collection
}

// NewMongoReportRepository returns a document-store implementation. The
// unique compound index on (location, problemType) must already exist.
func NewMongoReportRepository(coll *mongo.Collection) ReportRepository {
	return &mongoReportRepository{coll: coll}
}

func (r *mongoReportRepository) Create(ctx context.Context, report *domain.Report) error {
	_, err := r.coll.InsertOne(ctx, newReportDocument(report))
	return translateMongoError(err)
}

func (r *mongoReportRepository) Update(ctx context.Context, report *domain.Report) error {
	res, err := r.coll.UpdateByID(ctx, report.ID, bson.M{"$set": bson.M{
		"reportStatus": report.Status,
		"note":         report.Note,
		"updatedAt":    report.UpdatedAt,
	}})
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoReportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	var doc reportDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}
	report := doc.toDomain()
	return &report, nil
}

func (r *mongoReportRepository) List(ctx context.Context, filter ReportFilter) ([]domain.Report, error) {
	query := bson.M{}
	if filter.UserID != nil {
		query["userId"] = *filter.UserID
	}
	if len(filter.Statuses) > 0 {
		query["reportStatus"] = bson.M{"$in": filter.Statuses}
	}

	opts := options.Find().SetSort(bson.D{{Key: "dateCreated", Value: -1}})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, translateMongoError(err)
	}
	defer cursor.Close(ctx)
	return decodeReports(ctx, cursor)
}

func decodeReports(ctx context.Context, cursor *mongo.Cursor) ([]domain.Report, error) {
	result := []domain.Report{}
	for cursor.Next(ctx) {
		var doc reportDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, translateMongoError(err)
		}
		result = append(result, doc.toDomain())
	}
	return result, translateMongoError(cursor.Err())
}

func (r *mongoReportRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, translateMongoError(err)
	}
	return res.DeletedCount > 0, nil
}
