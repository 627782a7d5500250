package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockprotocol/hub-api/internal/domain"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldShortname: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": fieldShortname}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		fieldShortname:        "alice",
		fieldHasVerifiedEmail: true,
		fieldPreferredName:    "Alice",
	}
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)

	// has_verified_email < preferred_name < shortname
	assert.Equal(t, fieldHasVerifiedEmail, ue1.Names["#f0"])
	assert.Equal(t, fieldPreferredName, ue1.Names["#f1"])
	assert.Equal(t, fieldShortname, ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldEnable: true})
	require.NoError(t, err)
	av, ok := ue.Values[":v0"]
	require.True(t, ok)
	boolVal, isBool := av.(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestTypeKey(t *testing.T) {
	k := typeKey("https://x/@a/types/entity-type/animal/", 3)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "https://x/@a/types/entity-type/animal/"}, k[fieldBaseURL])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "3"}, k[fieldVersion])
}

func TestConditionFailed(t *testing.T) {
	err := conditionFailed(&types.ConditionalCheckFailedException{}, "type version already exists", domain.ErrConflict)
	assert.ErrorIs(t, err, domain.ErrConflict)

	other := assert.AnError
	assert.Equal(t, other, conditionFailed(other, "x", domain.ErrConflict))
	assert.NoError(t, conditionFailed(nil, "x", domain.ErrConflict))
}

func rec(base string, version int) domain.TypeRecord[domain.EntityType] {
	return domain.TypeRecord[domain.EntityType]{RecordID: domain.RecordID{BaseURL: base, Version: version}}
}

func TestLatestPerBaseURL(t *testing.T) {
	recs := []domain.TypeRecord[domain.EntityType]{
		rec("b/", 1), rec("a/", 2), rec("a/", 4), rec("a/", 1), rec("a/", 3), rec("b/", 2),
	}
	latest := latestPerBaseURL(recs)
	sortRecords(latest)

	require.Len(t, latest, 2)
	assert.Equal(t, domain.RecordID{BaseURL: "a/", Version: 4}, latest[0].RecordID)
	assert.Equal(t, domain.RecordID{BaseURL: "b/", Version: 2}, latest[1].RecordID)
}

func TestSortRecords(t *testing.T) {
	recs := []domain.TypeRecord[domain.EntityType]{rec("b/", 1), rec("a/", 2), rec("a/", 1)}
	sortRecords(recs)
	assert.Equal(t, "a/", recs[0].RecordID.BaseURL)
	assert.Equal(t, 1, recs[0].RecordID.Version)
	assert.Equal(t, 2, recs[1].RecordID.Version)
	assert.Equal(t, "b/", recs[2].RecordID.BaseURL)
}
