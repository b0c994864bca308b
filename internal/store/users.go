package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/medlink-api/internal/errs"
	"github.com/harentsoaR/medlink-api/internal/models"
	"github.com/harentsoaR/medlink-api/internal/utils"
)

// UserHook transforms a user right before it is written. changed names
// the fields the write touches.
type UserHook func(u *models.User, changed models.FieldSet) error

// HashPasswordHook replaces a changed plain-text password with its hash.
// Whatever the caller sent is treated as plain text, even if it is shaped
// like a bcrypt hash.
func HashPasswordHook(u *models.User, changed models.FieldSet) error {
	if !changed.Has("password") || u.Password == "" {
		return nil
	}
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return errs.Wrap(err, "Failed to hash password")
	}
	u.Password = hashed
	return nil
}

var withoutPassword = bson.D{{Key: "password", Value: 0}}

type UserStore struct {
	coll  *mongo.Collection
	hooks []UserHook
}

func NewUserStore(db *mongo.Database, hooks ...UserHook) *UserStore {
	return &UserStore{coll: db.Collection(usersCollection), hooks: hooks}
}

func (s *UserStore) beforeSave(u *models.User, changed models.FieldSet) error {
	for _, hook := range s.hooks {
		if err := hook(u, changed); err != nil {
			return err
		}
	}
	return nil
}

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.PushTokens == nil {
		u.PushTokens = []string{}
	}
	if err := s.beforeSave(u, models.Changed("password")); err != nil {
		return err
	}
	_, err := s.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return errs.Conflict("An account with this email already exists")
	}
	return translate(err, "User")
}

// FindByEmail is the only read that returns the password hash.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.coll.FindOne(ctx, bson.M{"email": models.NormalizeEmail(email)}).Decode(&u)
	if err != nil {
		return nil, translate(err, "User")
	}
	return &u, nil
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	opts := options.FindOne().SetProjection(withoutPassword)
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&u); err != nil {
		return nil, translate(err, "User")
	}
	return &u, nil
}

// Update writes only the changed fields of u, after running the hooks.
func (s *UserStore) Update(ctx context.Context, u *models.User, changed models.FieldSet) error {
	if err := s.beforeSave(u, changed); err != nil {
		return err
	}
	u.UpdatedAt = time.Now()

	set, unset, err := splitFields(u, changed)
	if err != nil {
		return errs.Wrap(err, "Failed to encode user")
	}
	set = append(set, bson.E{Key: "updatedAt", Value: u.UpdatedAt})

	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": u.ID}, update)
	if err != nil {
		return translate(err, "User")
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("User")
	}
	return nil
}

func (s *UserStore) ClearImage(ctx context.Context, id, imageID primitive.ObjectID) error {
	return clearImage(ctx, s.coll, id, imageID, "User")
}

func (s *UserStore) AddPushToken(ctx context.Context, id primitive.ObjectID, token string) ([]string, error) {
	return s.mutateTokens(ctx, id, bson.M{"$addToSet": bson.M{"pushTokens": token}})
}

func (s *UserStore) RemovePushToken(ctx context.Context, id primitive.ObjectID, token string) ([]string, error) {
	return s.mutateTokens(ctx, id, bson.M{"$pull": bson.M{"pushTokens": token}})
}

func (s *UserStore) mutateTokens(ctx context.Context, id primitive.ObjectID, update bson.M) ([]string, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "pushTokens", Value: 1}})

	var out struct {
		PushTokens []string `bson:"pushTokens"`
	}
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out); err != nil {
		return nil, translate(err, "User")
	}
	if out.PushTokens == nil {
		out.PushTokens = []string{}
	}
	return out.PushTokens, nil
}

func (s *UserStore) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	opts := options.Find().
		SetProjection(withoutPassword).
		SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{"roles": role}, opts)
	if err != nil {
		return nil, translate(err, "User")
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, translate(err, "User")
	}
	return users, nil
}

// splitFields encodes doc and sorts the changed top-level keys into those
// to $set and those the encoding omitted (cleared values) to $unset.
func splitFields(doc any, changed models.FieldSet) (set bson.D, unset bson.D, err error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, nil, err
	}
	var full bson.D
	if err := bson.Unmarshal(raw, &full); err != nil {
		return nil, nil, err
	}
	seen := make(map[string]bool, len(changed))
	set = bson.D{}
	for _, e := range full {
		if changed.Has(e.Key) {
			set = append(set, e)
			seen[e.Key] = true
		}
	}
	for f := range changed {
		if !seen[f] {
			unset = append(unset, bson.E{Key: f, Value: ""})
		}
	}
	return set, unset, nil
}
