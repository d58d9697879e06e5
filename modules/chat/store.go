package chat

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/chatkitlabs/chatd/pkg/auth"
)

// Contact is a single friend entry in an account's contact list. The
// conversation flag marks whether a chat window with that friend is open.
type Contact struct {
	Email        string `bson:"email" json:"email"`
	Name         string `bson:"name,omitempty" json:"name,omitempty"`
	Conversation bool   `bson:"conversation" json:"conversation"`
}

// Contacts is the per-account contact list document.
type Contacts struct {
	ID      bson.ObjectID `bson:"_id,omitempty" json:"-"`
	Owner   string        `bson:"owner" json:"owner"`
	Friends []Contact     `bson:"friends" json:"friends"`
}

// Message is a chat message document. SentAt is a millisecond Unix
// timestamp so clients can order messages without parsing dates.
type Message struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Sender    string        `bson:"sender" json:"sender"`
	Receiver  string        `bson:"receiver" json:"receiver"`
	Body      string        `bson:"body" json:"body"`
	SentAt    int64         `bson:"sent_at" json:"sent_at"`
	Delivered bool          `bson:"delivered" json:"delivered"`
}

// Store provides access to the contacts and messages collections.
type Store struct {
	contacts *mongo.Collection
	messages *mongo.Collection
}

// NewStore creates a store over the given database.
func NewStore(db *mongo.Database) *Store {
	return &Store{
		contacts: db.Collection("contacts"),
		messages: db.Collection("messages"),
	}
}

// EnsureIndexes creates the owner and receiver/delivered indexes. Call
// once at startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.contacts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "delivered", Value: 1}},
	})
	return err
}

// ListContacts returns the owner's contact list, empty if none exists yet.
func (s *Store) ListContacts(ctx context.Context, owner string) (*Contacts, error) {
	var contacts Contacts
	err := s.contacts.FindOne(ctx, bson.M{"owner": auth.NormalizeEmail(owner)}).Decode(&contacts)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &Contacts{Owner: auth.NormalizeEmail(owner), Friends: []Contact{}}, nil
		}
		return nil, err
	}
	return &contacts, nil
}

// AddFriend adds a contact to the owner's list, creating the list on first
// use. Adding an existing friend is a no-op.
func (s *Store) AddFriend(ctx context.Context, owner string, friend Contact) error {
	owner = auth.NormalizeEmail(owner)
	friend.Email = auth.NormalizeEmail(friend.Email)

	// $addToSet would treat entries with different flags as distinct, so
	// dedupe on the email explicitly.
	_, err := s.contacts.UpdateOne(ctx,
		bson.M{"owner": owner, "friends.email": bson.M{"$ne": friend.Email}},
		bson.M{"$push": bson.M{"friends": friend}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Upsert raced the filter: the list exists and already holds
			// this friend.
			return nil
		}
		return err
	}
	return nil
}

// RemoveFriend drops a contact from the owner's list.
func (s *Store) RemoveFriend(ctx context.Context, owner, friendEmail string) error {
	res, err := s.contacts.UpdateOne(ctx,
		bson.M{"owner": auth.NormalizeEmail(owner)},
		bson.M{"$pull": bson.M{"friends": bson.M{"email": auth.NormalizeEmail(friendEmail)}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrContactsNotFound
	}
	if res.ModifiedCount == 0 {
		return ErrFriendNotFound
	}
	return nil
}

// SetConversation flips the open-conversation flag on a contact entry.
func (s *Store) SetConversation(ctx context.Context, owner, friendEmail string, open bool) error {
	res, err := s.contacts.UpdateOne(ctx,
		bson.M{
			"owner":         auth.NormalizeEmail(owner),
			"friends.email": auth.NormalizeEmail(friendEmail),
		},
		bson.M{"$set": bson.M{"friends.$.conversation": open}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrFriendNotFound
	}
	return nil
}

// SaveMessage persists an outgoing message, stamping id and send time.
func (s *Store) SaveMessage(ctx context.Context, msg *Message) error {
	if msg.Body == "" {
		return ErrEmptyMessage
	}
	msg.ID = bson.NewObjectID()
	msg.Sender = auth.NormalizeEmail(msg.Sender)
	msg.Receiver = auth.NormalizeEmail(msg.Receiver)
	if msg.SentAt == 0 {
		msg.SentAt = time.Now().UnixMilli()
	}
	msg.Delivered = false

	_, err := s.messages.InsertOne(ctx, msg)
	return err
}

// Undelivered returns the receiver's pending messages in send order.
func (s *Store) Undelivered(ctx context.Context, receiver string) ([]Message, error) {
	cursor, err := s.messages.Find(ctx,
		bson.M{"receiver": auth.NormalizeEmail(receiver), "delivered": false},
		options.Find().SetSort(bson.D{{Key: "sent_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkDelivered flags all of the receiver's pending messages as delivered
// and reports how many were flipped.
func (s *Store) MarkDelivered(ctx context.Context, receiver string) (int64, error) {
	res, err := s.messages.UpdateMany(ctx,
		bson.M{"receiver": auth.NormalizeEmail(receiver), "delivered": false},
		bson.M{"$set": bson.M{"delivered": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
