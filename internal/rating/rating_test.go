package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_PhraseFamilies(t *testing.T) {
	assert.Equal(t, High, Classify("top"))
	assert.Equal(t, High, Classify("Excellent"))
	assert.Equal(t, High, Classify("génial"))
	assert.Equal(t, Mid, Classify("moyen"))
	assert.Equal(t, Mid, Classify("Bof"))
	assert.Equal(t, Low, Classify("mauvais"))
	assert.Equal(t, Low, Classify("déçu"))
}

func TestClassify_LegacyDigits(t *testing.T) {
	assert.Equal(t, High, Classify("1"))
	assert.Equal(t, Mid, Classify("2"))
	assert.Equal(t, Low, Classify("3"))
	assert.Equal(t, High, Classify(" 1 "))
}

func TestClassify_PunctuationAndEmoji(t *testing.T) {
	assert.Equal(t, High, Classify("Top ! 🥳"))
	assert.Equal(t, High, Classify("TOP!!!"))
	assert.Equal(t, Low, Classify("Pas top..."))
	assert.Equal(t, Mid, Classify("ça va"))
}

func TestClassify_DecoysDoNotMatchBySubstring(t *testing.T) {
	assert.Equal(t, None, Classify("Bien sûr pas top"))
	assert.Equal(t, None, Classify("le service était top mais l'attente trop longue"))
	assert.Equal(t, None, Classify("j'ai commandé 1 café"))
}

func TestClassify_PriorityHighOverLow(t *testing.T) {
	// "pas top" lives in the low list and must not be shadowed by "top".
	assert.Equal(t, Low, Classify("pas top"))
}

func TestClassify_Unmatched(t *testing.T) {
	assert.Equal(t, None, Classify(""))
	assert.Equal(t, None, Classify("   "))
	assert.Equal(t, None, Classify("🥳"))
	assert.Equal(t, None, Classify("je voudrais réserver une table"))
	assert.Equal(t, None, Classify("4"))
}
