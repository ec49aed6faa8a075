package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zudaR107/todo-app/internal/domain/task"
	"github.com/zudaR107/todo-app/internal/repo"
)

type taskDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	ProjectID   primitive.ObjectID `bson:"projectId"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Status      string             `bson:"status"`
	Priority    string             `bson:"priority"`
	Tags        []string           `bson:"tags"`
	StartAt     *time.Time         `bson:"startAt,omitempty"`
	DueAt       *time.Time         `bson:"dueAt,omitempty"`
	AllDay      *bool              `bson:"allDay,omitempty"`
	CreatedBy   primitive.ObjectID `bson:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d taskDoc) toDomain() task.Task {
	t := task.Task{
		ID:          d.ID.Hex(),
		ProjectID:   d.ProjectID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Status:      task.Status(d.Status),
		Priority:    task.Priority(d.Priority),
		Tags:        d.Tags,
		AllDay:      d.AllDay,
		CreatedBy:   d.CreatedBy.Hex(),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if d.StartAt != nil {
		s := d.StartAt.UTC()
		t.StartAt = &s
	}
	if d.DueAt != nil {
		due := d.DueAt.UTC()
		t.DueAt = &due
	}
	return t
}

type TasksRepo struct {
	coll *mongo.Collection
	obs  repo.Observer
}

func NewTasksRepo(db *mongo.Database, obs repo.Observer) *TasksRepo {
	return &TasksRepo{coll: db.Collection(tasksCollection), obs: obs}
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	projectID, ok := oid(t.ProjectID)
	if !ok {
		return task.Task{}, errors.New("invalid project id")
	}
	createdBy, ok := oid(t.CreatedBy)
	if !ok {
		return task.Task{}, errors.New("invalid creator id")
	}

	ts := now()
	doc := taskDoc{
		ID:          primitive.NewObjectID(),
		ProjectID:   projectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Tags:        t.Tags,
		StartAt:     t.StartAt,
		DueAt:       t.DueAt,
		AllDay:      t.AllDay,
		CreatedBy:   createdBy,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}

	err := observe(r.obs, "tasks.create", func() error {
		_, err := r.coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return task.Task{}, err
	}
	return doc.toDomain(), nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	o, ok := oid(id)
	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	var doc taskDoc
	err := observe(r.obs, "tasks.get_by_id", func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": o}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}
	return doc.toDomain(), nil
}

func listFilter(f task.ListFilter) bson.M {
	filter := bson.M{}

	if o, ok := oid(f.ProjectID); ok {
		filter["projectId"] = o
	}
	if f.Status != nil {
		filter["status"] = string(*f.Status)
	}
	if f.Priority != nil {
		filter["priority"] = string(*f.Priority)
	}
	if f.Tag != nil {
		filter["tags"] = *f.Tag
	}
	if f.Query != nil {
		filter["title"] = bson.M{"$regex": regexp.QuoteMeta(*f.Query), "$options": "i"}
	}

	due := bson.M{}
	if f.DueFrom != nil {
		due["$gte"] = *f.DueFrom
	}
	if f.DueTo != nil {
		due["$lte"] = *f.DueTo
	}
	if len(due) > 0 {
		filter["dueAt"] = due
	}

	return filter
}

func (r *TasksRepo) List(ctx context.Context, f task.ListFilter) ([]task.Task, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(f.Offset))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	return r.find(ctx, "tasks.list", listFilter(f), opts)
}

func (r *TasksRepo) ListInWindow(ctx context.Context, f task.WindowFilter) ([]task.Task, error) {
	window := bson.M{"$gte": f.From, "$lte": f.To}
	filter := bson.M{
		"$or": bson.A{
			bson.M{"startAt": window},
			bson.M{"dueAt": window},
		},
	}
	if !f.AllProjects {
		filter["projectId"] = bson.M{"$in": oids(f.ProjectIDs)}
	}

	return r.find(ctx, "tasks.list_in_window", filter, options.Find())
}

func (r *TasksRepo) find(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]task.Task, error) {
	var docs []taskDoc
	err := observe(r.obs, op, func() error {
		cur, err := r.coll.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	out := make([]task.Task, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *TasksRepo) Update(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error) {
	o, ok := oid(id)
	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	set := bson.M{"updatedAt": now()}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Status != nil {
		set["status"] = string(*req.Status)
	}
	if req.Priority != nil {
		set["priority"] = string(*req.Priority)
	}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}
	if req.StartAt != nil {
		set["startAt"] = *req.StartAt
	}
	if req.DueAt != nil {
		set["dueAt"] = *req.DueAt
	}
	if req.AllDay != nil {
		set["allDay"] = *req.AllDay
	}

	var doc taskDoc
	err := observe(r.obs, "tasks.update", func() error {
		return r.coll.FindOneAndUpdate(ctx, bson.M{"_id": o}, bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}
	return doc.toDomain(), nil
}
