package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkedSource_DisplayName(t *testing.T) {
	src := LinkedSource{LinkID: "l1", CaseID: "c1", BasePath: "/srv/cases/smith-v-jones"}
	assert.Equal(t, "smith-v-jones", src.DisplayName())
}

func TestReconcileStats_Add(t *testing.T) {
	total := ReconcileStats{}
	total.Add(ReconcileStats{Added: 1, Unchanged: 2})
	total.Add(ReconcileStats{Updated: 1, Removed: 3, Errors: 1})

	assert.Equal(t, ReconcileStats{Added: 1, Updated: 1, Removed: 3, Unchanged: 2, Errors: 1}, total)
}

func TestReconcileStats_Changed(t *testing.T) {
	assert.False(t, ReconcileStats{}.Changed())
	assert.True(t, ReconcileStats{}.IsZero())

	unchanged := ReconcileStats{Unchanged: 4}
	assert.False(t, unchanged.Changed())
	assert.False(t, unchanged.IsZero())

	assert.True(t, ReconcileStats{Errors: 1}.Changed())
	assert.True(t, ReconcileStats{Removed: 1}.Changed())
}
