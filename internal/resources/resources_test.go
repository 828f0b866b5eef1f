package resources_test

import (
	"path/filepath"
	"testing"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	defer filet.CleanUp(t)

	t.Run("empty path returns defaults", func(t *testing.T) {
		res, err := resources.Load("")

		require.NoError(t, err)
		assert.Equal(t, resources.Default(), res)
	})

	t.Run("yaml overrides are overlaid", func(t *testing.T) {
		dir := filet.TmpDir(t, "")
		path := filepath.Join(dir, "strings.yaml")
		filet.File(t, path, "cancel_command: скасувати\nhelp_message: Допомога\n")

		res, err := resources.Load(path)

		require.NoError(t, err)
		assert.Equal(t, "скасувати", res.CancelCommand)
		assert.Equal(t, "Допомога", res.HelpMessage)
		assert.Equal(t, "reset", res.ResetCommand)
	})

	t.Run("empty values keep the defaults", func(t *testing.T) {
		dir := filet.TmpDir(t, "")
		path := filepath.Join(dir, "strings.yaml")
		filet.File(t, path, "cancel_command: \"\"\nhelp_command:\nreset_prompt: Almost there.\n")

		res, err := resources.Load(path)

		require.NoError(t, err)
		want := resources.Default()
		want.ResetPrompt = "Almost there."
		assert.Equal(t, want, res)
	})

	t.Run("json overrides are overlaid", func(t *testing.T) {
		dir := filet.TmpDir(t, "")
		path := filepath.Join(dir, "strings.json")
		filet.File(t, path, `{"other_command": "інше", "yes_tokens": ""}`)

		res, err := resources.Load(path)

		require.NoError(t, err)
		assert.Equal(t, "інше", res.OtherCommand)
		assert.Equal(t, resources.Default().YesTokens, res.YesTokens)
	})

	t.Run("missing file", func(t *testing.T) {
		res, err := resources.Load("/nonexistent/strings.yaml")

		require.Error(t, err)
		require.Nil(t, res)
		assert.Contains(t, err.Error(), "failed to read resource file")
	})
}

func TestTokens(t *testing.T) {
	t.Parallel()
	res := resources.Default()

	assert.True(t, res.IsYes(" YES "))
	assert.True(t, res.IsYes("y"))
	assert.False(t, res.IsYes("yes please"))
	assert.True(t, res.IsNo("Nope"))
	assert.False(t, res.IsNo(""))

	assert.True(t, resources.Is("CANCEL", res.CancelCommand))
	assert.False(t, resources.Is("", ""))
}

func TestFieldLabel(t *testing.T) {
	t.Parallel()
	res := resources.Default()

	assert.Equal(t, "zip or postal code", res.FieldLabel(models.FieldPostalCode))
	assert.Equal(t, "country", res.FieldLabel(models.FieldCountry))
	assert.Empty(t, res.FieldLabel(models.FieldNone))
}
