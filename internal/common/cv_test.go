package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCVDocument(t *testing.T) {
	t.Run("valid CV", func(t *testing.T) {
		cv, err := ParseCVDocument(`{
			"name": "Jane Doe",
			"summary": "Backend engineer",
			"skills": "Go, PostgreSQL",
			"experience": [
				{
					"company": "Acme",
					"title": "Engineer",
					"startDate": "2020-01",
					"endDate": "2023-06",
					"description": "Built billing services"
				}
			],
			"education": "BSc Computer Science"
		}`)
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", cv.Name)
		require.Len(t, cv.Experience, 1)
		assert.Equal(t, "Acme", cv.Experience[0].Company)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := ParseCVDocument(`{"name": `)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "parse CV JSON")
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := ParseCVDocument(`{"summary": "no name here"}`)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid CV")
	})

	t.Run("position missing required fields", func(t *testing.T) {
		_, err := ParseCVDocument(`{
			"name": "Jane Doe",
			"experience": [{"company": "Acme"}]
		}`)
		assert.Error(t, err)
	})
}
