package codec

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/knakk/rdf"
	"github.com/siherrmann/tripler/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(i int64) *int64 { return &i }

func TestExport(t *testing.T) {
	t.Run("Writes plain statements", func(t *testing.T) {
		triples := []*model.Triple{
			model.NewLiteralTriple("http://example.org/kb/character/alice_1", "http://www.w3.org/2000/01/rdf-schema#label", "Alice", model.EntityTypeCharacter),
			model.NewURITriple("http://example.org/kb/character/alice_1", "http://www.w3.org/1999/02/22-rdf-syntax-ns#type", "http://example.org/kb/Character", model.EntityTypeCharacter),
		}

		var buf bytes.Buffer
		err := Export(&buf, triples, rdf.NTriples)
		require.NoError(t, err)

		output := buf.String()
		assert.Contains(t, output, "<http://example.org/kb/character/alice_1>")
		assert.Contains(t, output, `"Alice"`)
		assert.Contains(t, output, "<http://example.org/kb/Character>")
	})

	t.Run("Infers literal datatypes", func(t *testing.T) {
		triples := []*model.Triple{
			model.NewLiteralTriple("http://example.org/s", "http://example.org/flag", "true", model.EntityTypeEntity),
			model.NewLiteralTriple("http://example.org/s", "http://example.org/count", "42", model.EntityTypeEntity),
			model.NewLiteralTriple("http://example.org/s", "http://example.org/score", "3.14", model.EntityTypeEntity),
			model.NewLiteralTriple("http://example.org/s", "http://example.org/note", "TRUE but not a bool", model.EntityTypeEntity),
		}

		var buf bytes.Buffer
		err := Export(&buf, triples, rdf.NTriples)
		require.NoError(t, err)

		output := buf.String()
		assert.Contains(t, output, "XMLSchema#boolean")
		assert.Contains(t, output, "XMLSchema#integer")
		assert.Contains(t, output, "XMLSchema#double")
		assert.NotContains(t, output, `"TRUE but not a bool"^^<http://www.w3.org/2001/XMLSchema#boolean>`, "Only exact true/false are booleans")
	})

	t.Run("Reifies temporal statements", func(t *testing.T) {
		at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		regionType := model.TemporalRegionInstant
		granularity := "seconds"

		triple := model.NewLiteralTriple("http://example.org/kb/event/meeting_2", "http://www.w3.org/2006/time#hasTime", at.Format(time.RFC3339), model.EntityTypeEvent)
		triple.TemporalRegionType = &regionType
		triple.TemporalStart = &at
		triple.TemporalGranularity = &granularity

		var buf bytes.Buffer
		err := Export(&buf, []*model.Triple{triple}, rdf.NTriples)
		require.NoError(t, err)

		output := buf.String()
		assert.Contains(t, output, "22-rdf-syntax-ns#Statement")
		assert.Contains(t, output, "time#Instant")
		assert.Contains(t, output, "time#hasBeginning")
	})

	t.Run("Rejects invalid subject", func(t *testing.T) {
		triple := model.NewLiteralTriple("not a uri\n", "http://example.org/p", "v", model.EntityTypeEntity)
		var buf bytes.Buffer
		err := Export(&buf, []*model.Triple{triple}, rdf.NTriples)
		assert.Error(t, err)
	})
}

func TestImport(t *testing.T) {
	t.Run("Parses plain statements and stamps entity scope", func(t *testing.T) {
		input := strings.Join([]string{
			`<http://example.org/kb/character/alice_1> <http://www.w3.org/2000/01/rdf-schema#label> "Alice" .`,
			`<http://example.org/kb/character/alice_1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/kb/Character> .`,
		}, "\n")

		triples, err := Import(strings.NewReader(input), rdf.NTriples, model.EntityTypeCharacter, int64Ptr(1), int64Ptr(9))
		require.NoError(t, err)
		require.Len(t, triples, 2)

		for _, triple := range triples {
			assert.Equal(t, model.EntityTypeCharacter, triple.EntityType)
			require.NotNil(t, triple.EntityID)
			assert.Equal(t, int64(1), *triple.EntityID)
			require.NotNil(t, triple.ScenarioID)
			assert.Equal(t, int64(9), *triple.ScenarioID)
			assert.NoError(t, triple.Validate())
		}
	})

	t.Run("Rejects invalid entity type", func(t *testing.T) {
		_, err := Import(strings.NewReader(""), rdf.NTriples, model.EntityType("spaceship"), nil, nil)
		assert.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInvalidEntityType)
	})
}

func TestRoundTrip(t *testing.T) {
	t.Run("Export then import preserves statements and temporal regions", func(t *testing.T) {
		start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		end := time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)
		instant := model.TemporalRegionInstant
		interval := model.TemporalRegionInterval
		granularity := "seconds"

		timed := model.NewLiteralTriple("http://example.org/kb/event/meeting_2", "http://www.w3.org/2006/time#hasTime", start.Format(time.RFC3339), model.EntityTypeEvent)
		timed.TemporalRegionType = &instant
		timed.TemporalStart = &start
		timed.TemporalGranularity = &granularity

		span := model.NewURITriple("http://example.org/kb/event/shift_3", "http://example.org/kb/hasParticipant", "http://example.org/kb/character/alice_1", model.EntityTypeEvent)
		span.TemporalRegionType = &interval
		span.TemporalStart = &start
		span.TemporalEnd = &end

		plain := model.NewLiteralTriple("http://example.org/kb/event/meeting_2", "http://www.w3.org/2000/01/rdf-schema#label", "Team meeting", model.EntityTypeEvent)

		var buf bytes.Buffer
		err := Export(&buf, []*model.Triple{timed, span, plain}, rdf.NTriples)
		require.NoError(t, err)

		imported, err := Import(&buf, rdf.NTriples, model.EntityTypeEvent, int64Ptr(2), nil)
		require.NoError(t, err)
		require.Len(t, imported, 3, "Reified statements must fold back onto their plain counterparts")

		byObject := map[string]*model.Triple{}
		for _, triple := range imported {
			byObject[triple.Predicate] = triple
		}

		roundTripped := byObject["http://www.w3.org/2006/time#hasTime"]
		require.NotNil(t, roundTripped)
		require.NotNil(t, roundTripped.TemporalRegionType)
		assert.Equal(t, model.TemporalRegionInstant, *roundTripped.TemporalRegionType)
		require.NotNil(t, roundTripped.TemporalStart)
		assert.True(t, roundTripped.TemporalStart.Equal(start))
		require.NotNil(t, roundTripped.TemporalGranularity)
		assert.Equal(t, "seconds", *roundTripped.TemporalGranularity)

		spanTriple := byObject["http://example.org/kb/hasParticipant"]
		require.NotNil(t, spanTriple)
		assert.False(t, spanTriple.IsLiteral)
		require.NotNil(t, spanTriple.TemporalRegionType)
		assert.Equal(t, model.TemporalRegionInterval, *spanTriple.TemporalRegionType)
		require.NotNil(t, spanTriple.TemporalEnd)
		assert.True(t, spanTriple.TemporalEnd.Equal(end))

		label := byObject["http://www.w3.org/2000/01/rdf-schema#label"]
		require.NotNil(t, label)
		assert.Equal(t, "Team meeting", label.Object())
		assert.Nil(t, label.TemporalRegionType)
	})
}
