package repository

import (
	"context"
	"errors"
	"fmt"

	"samadhan-setu/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const IssueCollection = "issues"

var openStatuses = []models.IssueStatus{models.Pending, models.InProgress, models.PendingVerification}

// MongoIssues stores issues as one document each, history embedded.
type MongoIssues struct {
	coll *mongo.Collection
}

func NewMongoIssues(db *mongo.Database) *MongoIssues {
	return &MongoIssues{coll: db.Collection(IssueCollection)}
}

func (r *MongoIssues) Insert(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, issue); err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

func (r *MongoIssues) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("find issue %s: %w", id.Hex(), err)
	}
	return &issue, nil
}

func (r *MongoIssues) Find(ctx context.Context, filter IssueFilter) ([]models.Issue, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.coll.Find(ctx, issueQuery(filter), findOptions)
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	return issues, nil
}

func (r *MongoIssues) FindPublic(ctx context.Context) ([]models.IssuePublicView, error) {
	projection := bson.M{
		"_id":       0,
		"title":     1,
		"location":  1,
		"category":  1,
		"status":    1,
		"createdAt": 1,
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(projection)

	cursor, err := r.coll.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find public issues: %w", err)
	}
	defer cursor.Close(ctx)

	views := []models.IssuePublicView{}
	if err := cursor.All(ctx, &views); err != nil {
		return nil, fmt.Errorf("decode public issues: %w", err)
	}
	return views, nil
}

func (r *MongoIssues) Update(ctx context.Context, id primitive.ObjectID, upd IssueUpdate) (*models.Issue, error) {
	filter := bson.M{"_id": id}
	if len(upd.From) > 0 {
		filter["status"] = bson.M{"$in": upd.From}
	}
	if upd.AssignedToIs != nil {
		filter["assignedTo"] = *upd.AssignedToIs
	}

	update := bson.M{"$set": issueSet(upd)}
	if upd.History != nil {
		update["$push"] = bson.M{"status_history": upd.History}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var issue models.Issue
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&issue)
	if err == nil {
		return &issue, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update issue %s: %w", id.Hex(), err)
	}

	// Distinguish a missing issue from a guard miss.
	count, cerr := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return nil, fmt.Errorf("update issue %s: %w", id.Hex(), cerr)
	}
	if count == 0 {
		return nil, models.ErrNotFound
	}
	return nil, fmt.Errorf("issue %s changed before update: %w", id.Hex(), models.ErrConflict)
}

func (r *MongoIssues) Stats(ctx context.Context) (*models.IssueStats, error) {
	stats := &models.IssueStats{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.ByStatus, err = r.groupCount(ctx, "status", nil)
		return err
	})
	g.Go(func() (err error) {
		stats.ByCategory, err = r.groupCount(ctx, "category", nil)
		return err
	})
	g.Go(func() (err error) {
		stats.ByZone, err = r.groupCount(ctx, "zone", bson.M{"zone": bson.M{"$exists": true, "$ne": ""}})
		return err
	})
	g.Go(func() error {
		n, err := r.coll.CountDocuments(ctx, bson.M{"status": bson.M{"$in": openStatuses}})
		if err != nil {
			return fmt.Errorf("count open issues: %w", err)
		}
		stats.OpenIssues = n
		return nil
	})
	g.Go(func() error {
		cursor, err := r.coll.Aggregate(ctx, []bson.M{
			{"$group": bson.M{
				"_id":   nil,
				"count": bson.M{"$sum": 1},
				"cost":  bson.M{"$sum": "$cost"},
			}},
		})
		if err != nil {
			return fmt.Errorf("aggregate totals: %w", err)
		}
		defer cursor.Close(ctx)

		var totals []struct {
			Count int64   `bson:"count"`
			Cost  float64 `bson:"cost"`
		}
		if err := cursor.All(ctx, &totals); err != nil {
			return fmt.Errorf("decode totals: %w", err)
		}
		if len(totals) > 0 {
			stats.TotalIssues = totals[0].Count
			stats.TotalCost = totals[0].Cost
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *MongoIssues) groupCount(ctx context.Context, field string, match bson.M) ([]models.CountBucket, error) {
	pipeline := []bson.M{}
	if match != nil {
		pipeline = append(pipeline, bson.M{"$match": match})
	}
	pipeline = append(pipeline,
		bson.M{"$group": bson.M{
			"_id":   "$" + field,
			"count": bson.M{"$sum": 1},
		}},
		bson.M{"$project": bson.M{
			"name":  "$_id",
			"value": "$count",
			"_id":   0,
		}},
		bson.M{"$sort": bson.M{"name": 1}},
	)

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate by %s: %w", field, err)
	}
	defer cursor.Close(ctx)

	buckets := []models.CountBucket{}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("decode %s buckets: %w", field, err)
	}
	return buckets, nil
}

func issueQuery(f IssueFilter) bson.M {
	query := bson.M{}
	if f.ReportedBy != nil {
		query["reportedBy"] = *f.ReportedBy
	}
	if f.AssignedTo != nil {
		query["assignedTo"] = *f.AssignedTo
	}
	switch {
	case f.Status != "":
		query["status"] = f.Status
	case len(f.ExcludeStatus) > 0:
		query["status"] = bson.M{"$nin": f.ExcludeStatus}
	}
	if f.Zone != "" {
		query["zone"] = f.Zone
	}
	return query
}

func issueSet(upd IssueUpdate) bson.M {
	set := bson.M{"updatedAt": upd.UpdatedAt}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.AssignedTo != nil {
		set["assignedTo"] = *upd.AssignedTo
	}
	if upd.AIFeedback != nil {
		set["ai_feedback"] = *upd.AIFeedback
	}
	if upd.Cost != nil {
		set["cost"] = *upd.Cost
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.Severity != nil {
		set["severity"] = *upd.Severity
	}
	if upd.RecommendedAction != nil {
		set["recommendedAction"] = *upd.RecommendedAction
	}
	if upd.AIEnhancedDescription != nil {
		set["ai_enhanced_description"] = *upd.AIEnhancedDescription
	}
	return set
}
