package cmdutil

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/spf13/viper"

	"bookhunt/internal/testutil"
)

func TestExpandSettings(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.SetEnv("BOOKHUNT_TEST_KEY", "secret")

	settings := ExpandSettings(map[string]string{
		"api_key": "${BOOKHUNT_TEST_KEY}",
		"plain":   "value",
	})

	assert.Equal(t, "secret", settings["api_key"])
	assert.Equal(t, "value", settings["plain"])

	assert.Zero(t, ExpandSettings(nil))
}

func TestBuildResolverRequiresConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	_, err := BuildResolver()
	assert.Error(t, err)
}

func TestBuildResolverFromSection(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("resolver", map[string]string{"ttb_key": "k"})

	resolver, err := BuildResolver()
	assert.NoError(t, err)
	assert.Equal(t, "aladin", resolver.Name())
}

func TestBuildResolverFallsBackToAladinSource(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("sources", []map[string]any{
		{
			"name":     "bookstore",
			"kind":     "aladin",
			"enabled":  true,
			"settings": map[string]string{"ttb_key": "k"},
		},
	})

	_, err := BuildResolver()
	assert.NoError(t, err)
}

func TestBuildRegistrySkipsBrokenSources(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("sources", []map[string]any{
		{
			"name":     "bookstore",
			"kind":     "aladin",
			"priority": 1,
			"enabled":  true,
			"settings": map[string]string{"ttb_key": "k"},
		},
		{
			"name":     "broken",
			"kind":     "librarynet",
			"priority": 2,
			"enabled":  true,
			// missing auth_key and lib_codes
		},
	})

	registry := BuildRegistry()
	assert.Equal(t, 1, registry.Len())
	assert.NotZero(t, registry.GetByName("bookstore"))
}

func TestBuildRegistryForRestrictsToName(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("sources", []map[string]any{
		{
			"name":     "bookstore",
			"kind":     "aladin",
			"priority": 1,
			"enabled":  true,
			"settings": map[string]string{"ttb_key": "k"},
		},
		{
			"name":     "bookstore2",
			"kind":     "aladin",
			"priority": 2,
			"enabled":  true,
			"settings": map[string]string{"ttb_key": "k"},
		},
	})

	registry := BuildRegistryFor("bookstore2")
	assert.Equal(t, 1, registry.Len())
	assert.NotZero(t, registry.GetByName("bookstore2"))
}

func TestBuildOrchestratorForUnknownSource(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("resolver", map[string]string{"ttb_key": "k"})

	_, _, err := BuildOrchestratorFor(nil, "nope")
	assert.Error(t, err)
}

func TestBuildOrchestrator(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("resolver", map[string]string{"ttb_key": "k"})
	viper.Set("search.source_timeout", "5s")
	viper.Set("search.max_results", 5)

	o, registry, err := BuildOrchestrator(nil)
	assert.NoError(t, err)
	assert.NotZero(t, o)
	assert.NotZero(t, registry)
}
