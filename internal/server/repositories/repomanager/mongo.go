package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection         = "users"
	tasksCollection         = "tasks"
	refreshTokensCollection = "refresh_tokens"
)

// MongoRepositoryManager vends MongoDB-backed repositories. WithTx does not
// open a session transaction; the services only use it for refresh-token
// rotation, where a lost race yields a not-found token.
type MongoRepositoryManager struct {
	client        *mongo.Client
	users         *users.MongoRepository
	tasks         *tasks.MongoRepository
	refreshTokens *refreshtokens.MongoRepository
}

// OpenMongo connects to uri and checks the primary is reachable.
func OpenMongo(ctx context.Context, uri, database string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	return NewMongoRepositoryManager(client, client.Database(database)), nil
}

func NewMongoRepositoryManager(client *mongo.Client, db *mongo.Database) *MongoRepositoryManager {
	return &MongoRepositoryManager{
		client:        client,
		users:         users.NewMongoRepository(db.Collection(usersCollection)),
		tasks:         tasks.NewMongoRepository(db.Collection(tasksCollection)),
		refreshTokens: refreshtokens.NewMongoRepository(db.Collection(refreshTokensCollection)),
	}
}

func (m *MongoRepositoryManager) Users() users.Repository                 { return m.users }
func (m *MongoRepositoryManager) Tasks() tasks.Repository                 { return m.tasks }
func (m *MongoRepositoryManager) RefreshTokens() refreshtokens.Repository { return m.refreshTokens }

func (m *MongoRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return fn(ctx, m)
}

// RunMigrations creates the collection indexes.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := m.users.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := m.tasks.EnsureIndexes(ctx); err != nil {
		return err
	}
	return m.refreshTokens.EnsureIndexes(ctx)
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}
