package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/standupdoc/standupdoc/internal/standup"
)

// MongoStandupRepository implements StandupRepository using MongoDB.
type MongoStandupRepository struct {
	col *mongo.Collection
}

func NewMongoStandupRepository(col *mongo.Collection) *MongoStandupRepository {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "ownerSub", Value: 1}}}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoStandupRepository{col: col}
}

func (r *MongoStandupRepository) Create(ctx context.Context, s *standup.Standup) (string, error) {
	now := time.Now().UTC()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, s); err != nil {
		return "", err
	}
	return s.ID, nil
}

func (r *MongoStandupRepository) Get(ctx context.Context, id string) (*standup.Standup, error) {
	var s standup.Standup
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *MongoStandupRepository) List(ctx context.Context) ([]*standup.Standup, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoStandupRepository) ListByOwner(ctx context.Context, ownerSub string) ([]*standup.Standup, error) {
	return r.find(ctx, bson.M{"ownerSub": ownerSub})
}

func (r *MongoStandupRepository) find(ctx context.Context, filter bson.M) ([]*standup.Standup, error) {
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*standup.Standup{}
	for cur.Next(ctx) {
		var s standup.Standup
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, cur.Err()
}

func (r *MongoStandupRepository) Update(ctx context.Context, s *standup.Standup) error {
	s.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"name":        s.Name,
		"weekdays":    s.Weekdays,
		"meetingTime": s.MeetingTime,
		"timezone":    s.Timezone,
		"startDate":   s.StartDate,
		"updatedAt":   s.UpdatedAt,
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": s.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoStandupRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoDocumentRepository implements DocumentRepository using MongoDB.
// The unique index on (standupId, date) is what makes concurrent
// get-or-create race-free: losers of the race get a duplicate-key error
// mapped to ErrDuplicate and re-read.
type MongoDocumentRepository struct {
	col *mongo.Collection
}

func NewMongoDocumentRepository(col *mongo.Collection) *MongoDocumentRepository {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "standupId", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoDocumentRepository{col: col}
}

func (r *MongoDocumentRepository) GetByOccurrence(ctx context.Context, standupID string, date time.Time) (*standup.Document, error) {
	var d standup.Document
	err := r.col.FindOne(ctx, bson.M{"standupId": standupID, "date": date.UTC()}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *MongoDocumentRepository) Insert(ctx context.Context, d *standup.Document) (string, error) {
	now := time.Now().UTC()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.Date = d.Date.UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicate
		}
		return "", err
	}
	return d.ID, nil
}

func (r *MongoDocumentRepository) Update(ctx context.Context, d *standup.Document) error {
	d.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"wip":                 d.WIP,
		"achievementsSummary": d.AchievementsSummary,
		"source":              d.Source,
		"updatedAt":           d.UpdatedAt,
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": d.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoDocumentRepository) ListByStandup(ctx context.Context, standupID string) ([]*standup.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"standupId": standupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*standup.Document{}
	for cur.Next(ctx) {
		var d standup.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

// MongoAchievementRepository implements AchievementRepository using MongoDB.
type MongoAchievementRepository struct {
	col *mongo.Collection
}

func NewMongoAchievementRepository(col *mongo.Collection) *MongoAchievementRepository {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "standupId", Value: 1}, {Key: "eventStart", Value: 1}}}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoAchievementRepository{col: col}
}

func (r *MongoAchievementRepository) Create(ctx context.Context, a *standup.Achievement) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()
	if _, err := r.col.InsertOne(ctx, a); err != nil {
		return "", err
	}
	return a.ID, nil
}

func (r *MongoAchievementRepository) ListInWindow(ctx context.Context, standupID string, start, end time.Time) ([]*standup.Achievement, error) {
	// eventStart, never createdAt: achievements recorded late must still
	// land in the period they happened in.
	window := bson.M{"$lt": end.UTC()}
	if !start.IsZero() {
		window["$gte"] = start.UTC()
	}
	opts := options.Find().SetSort(bson.D{{Key: "eventStart", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"standupId": standupID, "eventStart": window}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*standup.Achievement{}
	for cur.Next(ctx) {
		var a standup.Achievement
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, cur.Err()
}

func (r *MongoAchievementRepository) AssignToDocument(ctx context.Context, documentID, standupID string, start, end time.Time) (int64, error) {
	window := bson.M{"$lt": end.UTC()}
	if !start.IsZero() {
		window["$gte"] = start.UTC()
	}
	res, err := r.col.UpdateMany(ctx,
		bson.M{"standupId": standupID, "eventStart": window},
		bson.M{"$set": bson.M{"documentId": documentID}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
