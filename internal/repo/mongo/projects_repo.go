package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zudaR107/todo-app/internal/domain/project"
	"github.com/zudaR107/todo-app/internal/repo"
)

type projectDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Color     string             `bson:"color,omitempty"`
	OwnerID   primitive.ObjectID `bson:"ownerId"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d projectDoc) toDomain() project.Project {
	return project.Project{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Color:     d.Color,
		OwnerID:   d.OwnerID.Hex(),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type ProjectsRepo struct {
	coll  *mongo.Collection
	tasks *mongo.Collection
	obs   repo.Observer
}

func NewProjectsRepo(db *mongo.Database, obs repo.Observer) *ProjectsRepo {
	return &ProjectsRepo{
		coll:  db.Collection(projectsCollection),
		tasks: db.Collection(tasksCollection),
		obs:   obs,
	}
}

func (r *ProjectsRepo) Create(ctx context.Context, p project.Project) (project.Project, error) {
	owner, ok := oid(p.OwnerID)
	if !ok {
		return project.Project{}, errors.New("invalid owner id")
	}

	ts := now()
	doc := projectDoc{
		ID:        primitive.NewObjectID(),
		Name:      p.Name,
		Color:     p.Color,
		OwnerID:   owner,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	err := observe(r.obs, "projects.create", func() error {
		_, err := r.coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return project.Project{}, err
	}
	return doc.toDomain(), nil
}

func (r *ProjectsRepo) GetByID(ctx context.Context, id string) (project.Project, error) {
	o, ok := oid(id)
	if !ok {
		return project.Project{}, project.ErrNotFound
	}

	var doc projectDoc
	err := observe(r.obs, "projects.get_by_id", func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": o}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, err
	}
	return doc.toDomain(), nil
}

func (r *ProjectsRepo) ListByOwner(ctx context.Context, ownerID string) ([]project.Project, error) {
	out := make([]project.Project, 0)
	owner, ok := oid(ownerID)
	if !ok {
		return out, nil
	}

	var docs []projectDoc
	err := observe(r.obs, "projects.list_by_owner", func() error {
		cur, err := r.coll.Find(ctx, bson.M{"ownerId": owner},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *ProjectsRepo) ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	out := make([]string, 0)
	owner, ok := oid(ownerID)
	if !ok {
		return out, nil
	}

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := observe(r.obs, "projects.list_ids_by_owner", func() error {
		cur, err := r.coll.Find(ctx, bson.M{"ownerId": owner},
			options.Find().SetProjection(bson.M{"_id": 1}))
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	for _, d := range docs {
		out = append(out, d.ID.Hex())
	}
	return out, nil
}

func (r *ProjectsRepo) Update(ctx context.Context, id string, req project.UpdateProjectRequest) (project.Project, error) {
	o, ok := oid(id)
	if !ok {
		return project.Project{}, project.ErrNotFound
	}

	set := bson.M{"updatedAt": now()}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Color != nil {
		set["color"] = *req.Color
	}

	var doc projectDoc
	err := observe(r.obs, "projects.update", func() error {
		return r.coll.FindOneAndUpdate(ctx, bson.M{"_id": o}, bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, err
	}
	return doc.toDomain(), nil
}

// Delete removes the project first so a failure half way leaves orphaned
// tasks that no route can reach, never a project missing its tasks.
func (r *ProjectsRepo) Delete(ctx context.Context, id string) error {
	o, ok := oid(id)
	if !ok {
		return project.ErrNotFound
	}

	var deleted int64
	err := observe(r.obs, "projects.delete", func() error {
		res, err := r.coll.DeleteOne(ctx, bson.M{"_id": o})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return project.ErrNotFound
	}

	return observe(r.obs, "tasks.delete_by_project", func() error {
		_, err := r.tasks.DeleteMany(ctx, bson.M{"projectId": o})
		return err
	})
}
