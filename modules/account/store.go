package account

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/chatkitlabs/chatd/pkg/auth"
)

// User is the account document stored in the users collection.
type User struct {
	ID               bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name             string        `bson:"name" json:"name"`
	LastName         string        `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Email            string        `bson:"email" json:"email"`
	PasswordHash     string        `bson:"password_hash" json:"-"`
	EmailVerified    bool          `bson:"email_verified" json:"email_verified"`
	TwoFactorEnabled bool          `bson:"twofactor_enabled" json:"twofactor_enabled"`
	Disabled         bool          `bson:"disabled" json:"disabled"`
	Online           bool          `bson:"online" json:"online"`
	Issuer           string        `bson:"issuer,omitempty" json:"-"`
	PictureURL       string        `bson:"picture_url,omitempty" json:"picture_url,omitempty"`
	Roles            []string      `bson:"roles" json:"roles"`
	Addresses        []Address     `bson:"addresses,omitempty" json:"addresses,omitempty"`
	CreatedAt        time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `bson:"updated_at" json:"updated_at"`
}

// Address is a postal address embedded in the user document.
type Address struct {
	Street  string `bson:"street" json:"street"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Zip     string `bson:"zip" json:"zip"`
	Country string `bson:"country" json:"country"`
}

// Picture is a profile image stored as raw bytes in its own collection,
// keyed by the owner's email.
type Picture struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Email       string        `bson:"email"`
	ContentType string        `bson:"content_type"`
	Data        []byte        `bson:"data"`
	UpdatedAt   time.Time     `bson:"updated_at"`
}

// Patch carries a partial user update. Nil fields are left untouched.
type Patch struct {
	Name       *string `json:"name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	PictureURL *string `json:"picture_url,omitempty"`
}

// Store provides access to the users and pictures collections.
type Store struct {
	users    *mongo.Collection
	pictures *mongo.Collection
}

// NewStore creates a store over the given database.
func NewStore(db *mongo.Database) *Store {
	return &Store{
		users:    db.Collection("users"),
		pictures: db.Collection("pictures"),
	}
}

// EnsureIndexes creates the unique email index the store relies on. Call
// once at startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// FindByEmail returns the user with the given normalized email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.users.FindOne(ctx, bson.M{"email": auth.NormalizeEmail(email)}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns users ordered by creation time, newest first.
func (s *Store) List(ctx context.Context, limit, offset int64) ([]User, error) {
	cursor, err := s.users.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit).
			SetSkip(offset),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the total number of users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.users.CountDocuments(ctx, bson.M{})
}

// Create inserts a new user, stamping id and timestamps.
func (s *Store) Create(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	user.ID = bson.NewObjectID()
	user.Email = auth.NormalizeEmail(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// Update applies a partial patch to the user document.
func (s *Store) Update(ctx context.Context, email string, patch Patch) error {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.LastName != nil {
		set["last_name"] = *patch.LastName
	}
	if patch.PictureURL != nil {
		set["picture_url"] = *patch.PictureURL
	}
	if len(set) == 0 {
		return ErrNothingToUpdate
	}
	set["updated_at"] = time.Now().UTC()

	return s.updateOne(ctx, email, bson.M{"$set": set})
}

// Delete removes the user and any stored profile picture.
func (s *Store) Delete(ctx context.Context, email string) error {
	email = auth.NormalizeEmail(email)
	res, err := s.users.DeleteOne(ctx, bson.M{"email": email})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrUserNotFound
	}
	_, _ = s.pictures.DeleteOne(ctx, bson.M{"email": email})
	return nil
}

// SetDisabled flips the account kill switch.
func (s *Store) SetDisabled(ctx context.Context, email string, disabled bool) error {
	return s.setField(ctx, email, "disabled", disabled)
}

// SetOnline records chat presence.
func (s *Store) SetOnline(ctx context.Context, email string, online bool) error {
	return s.setField(ctx, email, "online", online)
}

// SetEmailVerified marks the address as confirmed.
func (s *Store) SetEmailVerified(ctx context.Context, email string, verified bool) error {
	return s.setField(ctx, email, "email_verified", verified)
}

// SetTwoFactorEnabled toggles TOTP enforcement for the account.
func (s *Store) SetTwoFactorEnabled(ctx context.Context, email string, enabled bool) error {
	return s.setField(ctx, email, "twofactor_enabled", enabled)
}

// UpdatePasswordHash replaces the stored password hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, email, hash string) error {
	return s.setField(ctx, email, "password_hash", hash)
}

// AddAddress appends an address to the user document.
func (s *Store) AddAddress(ctx context.Context, email string, addr Address) error {
	return s.updateOne(ctx, email, bson.M{
		"$push": bson.M{"addresses": addr},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

// UpdateAddress replaces the address at the given position.
func (s *Store) UpdateAddress(ctx context.Context, email string, index int, addr Address) error {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(user.Addresses) {
		return ErrAddressIndex
	}
	return s.updateOne(ctx, email, bson.M{
		"$set": bson.M{
			"addresses." + strconv.Itoa(index): addr,
			"updated_at":                       time.Now().UTC(),
		},
	})
}

// SavePicture upserts the profile picture for the account.
func (s *Store) SavePicture(ctx context.Context, email, contentType string, data []byte) error {
	email = auth.NormalizeEmail(email)
	_, err := s.pictures.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{
			"content_type": contentType,
			"data":         data,
			"updated_at":   time.Now().UTC(),
		}},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

// FindPicture returns the stored profile picture for the account.
func (s *Store) FindPicture(ctx context.Context, email string) (*Picture, error) {
	var pic Picture
	err := s.pictures.FindOne(ctx, bson.M{"email": auth.NormalizeEmail(email)}).Decode(&pic)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPictureNotFound
		}
		return nil, err
	}
	return &pic, nil
}

func (s *Store) setField(ctx context.Context, email, field string, value any) error {
	return s.updateOne(ctx, email, bson.M{
		"$set": bson.M{field: value, "updated_at": time.Now().UTC()},
	})
}

func (s *Store) updateOne(ctx context.Context, email string, update bson.M) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"email": auth.NormalizeEmail(email)}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
