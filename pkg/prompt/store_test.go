package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ernissmal/image-generator-app/pkg/domain"
)

const schemaPath = "../../prompts/template-schema.json"

func validTemplateJSON(id, angleType string) string {
	return `{
		"id": "` + id + `",
		"angle_type": "` + angleType + `",
		"description": "test template",
		"version": "1.0.0",
		"prompt": {
			"system": "You are a product photographer.",
			"user": "Show {product_name} from the ` + angleType + ` angle",
			"negative": "blurry"
		},
		"parameters": {
			"temperature": 0.4,
			"top_p": 0.8,
			"top_k": 40,
			"max_output_tokens": 2048
		}
	}`
}

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestStore_LoadAll(t *testing.T) {
	t.Run("valid templates are retrievable, invalid ones are absent", func(t *testing.T) {
		dir := t.TempDir()
		writeTemplate(t, dir, "45deg.json", validTemplateJSON("45deg", "45deg"))
		writeTemplate(t, dir, "front.json", validTemplateJSON("front", "0deg"))
		// Missing prompt and parameters: the schema must reject this.
		writeTemplate(t, dir, "broken.json", `{"id": "broken", "angle_type": "90deg"}`)
		// Unknown top-level field: strict validation rejects it too.
		writeTemplate(t, dir, "sneaky.json", validTemplateJSON("sneaky", "90deg")[:1]+`"extra": true,`+validTemplateJSON("sneaky", "90deg")[1:])
		writeTemplate(t, dir, "garbage.json", `{not json`)

		store, err := NewStore(schemaPath)
		require.NoError(t, err)
		require.NoError(t, store.LoadAll(dir))

		got, err := store.GetByID("45deg")
		require.NoError(t, err)
		assert.Equal(t, "45deg", got.AngleType)

		byAngle, err := store.GetByAngleType("0deg")
		require.NoError(t, err)
		assert.Equal(t, "front", byAngle.ID)

		_, err = store.GetByID("broken")
		var nfe *domain.NotFoundError
		assert.True(t, errors.As(err, &nfe), "invalid template must not be indexed")

		_, err = store.GetByID("sneaky")
		assert.Error(t, err, "template with unknown fields must not be indexed")

		assert.Equal(t, 2, store.Stats().Total)
	})

	t.Run("missing directory is a ConfigError", func(t *testing.T) {
		store, err := NewStore(schemaPath)
		require.NoError(t, err)

		err = store.LoadAll(filepath.Join(t.TempDir(), "nope"))
		var ce *domain.ConfigError
		assert.True(t, errors.As(err, &ce))
	})

	t.Run("zero successfully loaded templates is a ConfigError", func(t *testing.T) {
		dir := t.TempDir()
		writeTemplate(t, dir, "bad.json", `{"id": "bad"}`)

		store, err := NewStore(schemaPath)
		require.NoError(t, err)

		err = store.LoadAll(dir)
		var ce *domain.ConfigError
		assert.True(t, errors.As(err, &ce))
	})

	t.Run("missing schema is a ConfigError", func(t *testing.T) {
		_, err := NewStore(filepath.Join(t.TempDir(), "missing-schema.json"))
		var ce *domain.ConfigError
		assert.True(t, errors.As(err, &ce))
	})
}

func TestStore_Lookups(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "a.json", validTemplateJSON("first", "45deg"))
	writeTemplate(t, dir, "b.json", validTemplateJSON("second", "45deg"))

	store, err := NewStore(schemaPath)
	require.NoError(t, err)
	require.NoError(t, store.LoadAll(dir))

	t.Run("angle type ties break on first-loaded order", func(t *testing.T) {
		got, err := store.GetByAngleType("45deg")
		require.NoError(t, err)
		assert.Equal(t, "first", got.ID)
	})

	t.Run("unknown angle type is NotFoundError", func(t *testing.T) {
		_, err := store.GetByAngleType("999deg")
		var nfe *domain.NotFoundError
		assert.True(t, errors.As(err, &nfe))
	})

	t.Run("available angles follow load order", func(t *testing.T) {
		infos := store.AvailableAngles()
		require.Len(t, infos, 2)
		assert.Equal(t, "first", infos[0].ID)
		assert.Equal(t, "second", infos[1].ID)
	})
}

func TestStore_ShippedTemplates(t *testing.T) {
	store, err := NewStore(schemaPath)
	require.NoError(t, err)
	require.NoError(t, store.LoadAll("../../prompts/angle-generation"))

	assert.Equal(t, 9, store.Stats().Total, "all shipped templates should validate")
	for _, angle := range []string{"0deg", "45deg", "90deg", "135deg", "180deg", "270deg", "isometric", "orthographic", "profile"} {
		_, err := store.GetByAngleType(angle)
		assert.NoError(t, err, angle)
	}
}
