package store

import (
	"context"
	"errors"
	"time"

	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/observability/logging"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	sessionCollection = "realtimelogs"
	resultCollection  = "transcriptions"
)

// Mongo bundles the MongoDB-backed stores over one client.
type Mongo struct {
	client   *mongo.Client
	sessions *mongo.Collection
	results  *mongo.Collection
	log      zerolog.Logger
}

// NewMongo connects to MongoDB and prepares the collections and indexes.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(database)
	m := &Mongo{
		client:   client,
		sessions: db.Collection(sessionCollection),
		results:  db.Collection(resultCollection),
		log:      logging.WithComponent("store.mongo"),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	m.log.Info().Str("database", database).Msg("MongoDB connection established")
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = m.results.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "source", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// SessionStore returns the session store view.
func (m *Mongo) SessionStore() SessionStore { return &mongoSessionStore{m} }

// ResultStore returns the result store view.
func (m *Mongo) ResultStore() ResultStore { return &mongoResultStore{m} }

type mongoSessionStore struct{ *Mongo }

func (s *mongoSessionStore) Create(ctx context.Context, log *models.SessionLog) error {
	_, err := s.sessions.InsertOne(ctx, log)
	return err
}

func (s *mongoSessionStore) AppendPartial(ctx context.Context, sessionID, partial string) error {
	res, err := s.sessions.UpdateOne(ctx,
		bson.M{"sessionId": sessionID},
		bson.M{
			"$inc": bson.M{"audioChunksReceived": 1},
			"$push": bson.M{
				"transcriptionEvents":   "partial:" + partial,
				"partialTranscriptions": partial,
			},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *mongoSessionStore) SetFinal(ctx context.Context, sessionID, final string, endedAt time.Time, durationMs int64) error {
	res, err := s.sessions.UpdateOne(ctx,
		bson.M{"sessionId": sessionID},
		bson.M{
			"$set": bson.M{
				"finalTranscription": final,
				"endedAt":            endedAt,
				"duration":           durationMs,
			},
			"$push": bson.M{"transcriptionEvents": "final:" + final},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *mongoSessionStore) Get(ctx context.Context, sessionID string) (*models.SessionLog, error) {
	var rec models.SessionLog
	err := s.sessions.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type mongoResultStore struct{ *Mongo }

func (s *mongoResultStore) Save(ctx context.Context, t *models.Transcription) (*models.Transcription, error) {
	saved := *t
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}

	if _, err := s.results.InsertOne(ctx, saved); err != nil {
		return nil, err
	}

	s.log.Info().Str("id", saved.ID).Msg("Transcription saved")
	return &saved, nil
}

func (s *mongoResultStore) List(ctx context.Context, opts ListOptions) ([]models.Transcription, Pagination, error) {
	opts = opts.Normalize()
	threshold := time.Now().UTC().AddDate(0, 0, -opts.WindowDays)

	filter := bson.M{"createdAt": bson.M{"$gte": threshold}}
	if opts.Source != "" {
		filter["source"] = opts.Source
	}

	total, err := s.results.CountDocuments(ctx, filter)
	if err != nil {
		return nil, Pagination{}, err
	}

	skip := int64((opts.Page - 1) * opts.Limit)
	cursor, err := s.results.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(opts.Limit)))
	if err != nil {
		return nil, Pagination{}, err
	}
	defer cursor.Close(ctx)

	var items []models.Transcription
	if err := cursor.All(ctx, &items); err != nil {
		return nil, Pagination{}, err
	}

	return items, paginationFor(opts, int(total)), nil
}
