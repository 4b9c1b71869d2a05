package entity_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/invite-harvester/internal/entity"
)

const testLink = entity.CandidateLink("https://chat.whatsapp.com/AAA111")

func TestNewActiveRecord_RequiresName(t *testing.T) {
	rec := entity.NewActiveRecord(testLink, "Study Buddies", "https://cdn/logo.jpg", "", 200)
	assert.Equal(t, entity.StatusActive, rec.Status)
	assert.True(t, rec.IsActive())

	noName := entity.NewActiveRecord(testLink, "", "https://cdn/logo.jpg", "", 200)
	assert.Equal(t, entity.StatusNoNameFound, noName.Status)
	assert.Empty(t, noName.Name)
	assert.False(t, noName.IsActive())
}

func TestNewFailedRecord_NeverActive(t *testing.T) {
	rec := entity.NewFailedRecord(testLink, entity.StatusActive, 200, "")
	assert.NotEqual(t, entity.StatusActive, rec.Status)

	expired := entity.NewFailedRecord(testLink, entity.StatusExpired, 404, "not found")
	assert.Equal(t, entity.StatusExpired, expired.Status)
	assert.Equal(t, 404, expired.HTTPStatusCode)
	assert.Empty(t, expired.Name)
}

func TestActiveOnly(t *testing.T) {
	records := []entity.GroupRecord{
		entity.NewActiveRecord("a", "A", "", "", 200),
		entity.NewFailedRecord("b", entity.StatusExpired, 404, ""),
		entity.NewActiveRecord("c", "C", "", "", 200),
		entity.NewFailedRecord("d", entity.StatusTimeout, 0, "deadline"),
	}
	active := entity.ActiveOnly(records)
	require.Len(t, active, 2)
	assert.Equal(t, entity.CandidateLink("a"), active[0].Link)
	assert.Equal(t, entity.CandidateLink("c"), active[1].Link)
}

func TestWithDescription_ReturnsCopy(t *testing.T) {
	rec := entity.NewActiveRecord(testLink, "Group", "", "", 200)
	enriched := rec.WithDescription("A friendly study group.")
	assert.Empty(t, rec.Description)
	assert.Equal(t, "A friendly study group.", enriched.Description)
}

func TestStatus_Category(t *testing.T) {
	assert.Equal(t, entity.CategoryOK, entity.StatusActive.Category())
	assert.Equal(t, entity.CategoryTransport, entity.StatusTimeout.Category())
	assert.Equal(t, entity.CategoryTransport, entity.StatusNetworkError.Category())
	assert.Equal(t, entity.CategoryContent, entity.StatusParsingError.Category())
	assert.Equal(t, entity.CategoryContent, entity.StatusNoNameFound.Category())
	assert.Equal(t, entity.CategoryPolicy, entity.StatusExpired.Category())
	assert.Equal(t, entity.CategoryPolicy, entity.StatusNotWhatsAppLink.Category())
}

func TestStatus_JSONNames(t *testing.T) {
	for _, s := range entity.AllStatuses() {
		data, err := json.Marshal(s)
		require.NoError(t, err)
		assert.Equal(t, `"`+s.String()+`"`, string(data))

		var back entity.Status
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, s, back)
	}

	var bad entity.Status
	assert.Error(t, json.Unmarshal([]byte(`"Gone"`), &bad))
}

func TestGroupRecord_StableFieldNames(t *testing.T) {
	rec := entity.NewActiveRecord(testLink, "Study Buddies", "https://cdn/logo.jpg", "desc", 200)
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, string(testLink), fields["link"])
	assert.Equal(t, "Active", fields["status"])
	assert.Equal(t, "Study Buddies", fields["name"])
	assert.Equal(t, "https://cdn/logo.jpg", fields["logo_url"])
	assert.Equal(t, "desc", fields["description"])
}

func TestHarvestRun_Summarize(t *testing.T) {
	run := entity.NewHarvestRun("run-1", "study groups", 5)
	run.Candidates = []entity.CandidateLink{"a", "b", "c"}
	run.Records = []entity.GroupRecord{
		entity.NewActiveRecord("a", "A", "", "", 200),
		entity.NewFailedRecord("b", entity.StatusExpired, 404, ""),
		entity.NewFailedRecord("c", entity.StatusExpired, 200, "redirected"),
	}

	s := run.Summarize()
	assert.Equal(t, 3, s.Candidates)
	assert.Equal(t, 3, s.Validated)
	assert.Equal(t, 1, s.Active)
	assert.Equal(t, 2, s.ByStatus["Expired"])
	assert.Equal(t, 1, s.ByStatus["Active"])
}
