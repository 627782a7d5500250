package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/blockprotocol/hub-api/internal/domain"
)

func stageNames(p []bson.D) []string {
	names := make([]string, 0, len(p))
	for _, stage := range p {
		names = append(names, stage[0].Key)
	}
	return names
}

func TestQueryPipeline_AllVersions(t *testing.T) {
	p := queryPipeline(domain.TypeFilter{})
	assert.Equal(t, []string{"$sort"}, stageNames(p))
}

func TestQueryPipeline_LatestOnlyGroupsByBaseURL(t *testing.T) {
	p := queryPipeline(domain.TypeFilter{LatestOnly: true})
	require.Equal(t, []string{"$sort", "$group", "$replaceWith", "$sort"}, stageNames(p))

	sortStage := p[0][0].Value.(bson.D)
	assert.Equal(t, bson.E{Key: "recordId.version", Value: -1}, sortStage[1])

	group := p[1][0].Value.(bson.D)
	assert.Equal(t, bson.E{Key: "_id", Value: "$recordId.baseUrl"}, group[0])
	assert.Equal(t, "$latest", p[2][0].Value)
}

func TestQueryPipeline_MatchesAuthorFirst(t *testing.T) {
	p := queryPipeline(domain.TypeFilter{LatestOnly: true, UserID: "u1"})
	require.Equal(t, "$match", p[0][0].Key)
	assert.Equal(t, bson.D{{Key: "userId", Value: "u1"}}, p[0][0].Value)
}
