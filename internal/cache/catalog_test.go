package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestKeyIgnoresIDOrder(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	assert.Equal(t,
		Key("entries", 3, []primitive.ObjectID{a, b}),
		Key("entries", 3, []primitive.ObjectID{b, a}))
}

func TestKeySeparatesKindAndVersion(t *testing.T) {
	ids := []primitive.ObjectID{primitive.NewObjectID()}

	assert.NotEqual(t, Key("entries", 1, ids), Key("contraindications", 1, ids))
	assert.NotEqual(t, Key("entries", 1, ids), Key("entries", 2, ids))
	assert.Equal(t, "catalog:v0:bodyparts:", Key("bodyparts", 0, nil))
}
