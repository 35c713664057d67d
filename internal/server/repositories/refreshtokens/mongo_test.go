package refreshtokens

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	exp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		repo := NewMongoRepository(mt.Coll)
		require.NoError(mt, repo.Create(context.Background(), &models.RefreshToken{Token: "tok", UserID: "u1", Expires: exp}))
	})

	mt.Run("find", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "tok"},
			{Key: "user_id", Value: "u1"},
			{Key: "expires_at", Value: exp},
			{Key: "created_at", Value: exp.Add(-time.Hour)},
		}))

		repo := NewMongoRepository(mt.Coll)
		rt, err := repo.Find(context.Background(), "tok")
		require.NoError(mt, err)
		assert.Equal(mt, "u1", rt.UserID)
		assert.True(mt, rt.Expires.Equal(exp))
	})

	mt.Run("find missing", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		repo := NewMongoRepository(mt.Coll)
		_, err := repo.Find(context.Background(), "nope")
		require.ErrorIs(mt, err, common.ErrorNotFound)
	})

	mt.Run("delete expired", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 2}})

		repo := NewMongoRepository(mt.Coll)
		n, err := repo.DeleteExpired(context.Background(), "u1", exp)
		require.NoError(mt, err)
		assert.EqualValues(mt, 2, n)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		repo := NewMongoRepository(mt.Coll)
		require.NoError(mt, repo.EnsureIndexes(context.Background()))
	})
}
