package waste

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveVocabulary(t *testing.T) {
	for _, label := range Vocabulary() {
		bin, err := Resolve(label)
		require.NoError(t, err, "label %v", label)
		require.True(t, bin.Valid(), "label %v resolved to %v", label, bin)
		require.NotEmpty(t, bin.Description())
	}
}

func TestResolveTable(t *testing.T) {
	tests := []struct {
		label    ClassLabel
		expected BinColor
	}{
		{"clothes", BinYellow},
		{"paper", BinBlue},
		{"glass", BinBlue},
		{"battery", BinRed},
		{"plastic", BinBlue},
		{"shoes", BinYellow},
		{"trash", BinBlack},
		{"cardboard", BinBlue},
		{"biological", BinGreen},
		{"metal", BinBlue},
		{"  Plastic ", BinBlue},
	}

	for _, tt := range tests {
		bin, err := Resolve(tt.label)
		require.NoError(t, err)
		require.Equal(t, tt.expected, bin, "label %q", tt.label)
	}
}

func TestResolveUnrecognized(t *testing.T) {
	for _, label := range []ClassLabel{"foo", "", "person", "plastics"} {
		bin, err := Resolve(label)
		require.True(t, errors.Is(err, ErrUnrecognizedLabel), "label %q", label)
		require.Equal(t, BinColor(""), bin)
		require.False(t, bin.Valid())
	}
}

func TestResolveIsPure(t *testing.T) {
	first, err := Resolve(LabelBattery)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		bin, err := Resolve(LabelBattery)
		require.NoError(t, err)
		require.Equal(t, first, bin)
	}
}

func TestSelectPrimary(t *testing.T) {
	dets := []Detection{
		{Label: LabelBattery, Confidence: 0.9},
		{Label: LabelPlastic, Confidence: 0.95},
	}
	primary, err := SelectPrimary(dets)
	require.NoError(t, err)
	require.Equal(t, LabelPlastic, primary.Label)

	bin, err := Resolve(primary.Label)
	require.NoError(t, err)
	require.Equal(t, BinBlue, bin)
}

func TestSelectPrimaryTieKeepsScanOrder(t *testing.T) {
	dets := []Detection{
		{Label: LabelPaper, Confidence: 0.5},
		{Label: LabelGlass, Confidence: 0.8},
		{Label: LabelMetal, Confidence: 0.8},
	}
	primary, err := SelectPrimary(dets)
	require.NoError(t, err)
	require.Equal(t, LabelGlass, primary.Label)
}

func TestSelectPrimaryEmpty(t *testing.T) {
	_, err := SelectPrimary(nil)
	require.ErrorIs(t, err, ErrNoDetection)
}

func TestClassifySorted(t *testing.T) {
	v := Classify([]Detection{
		{Label: LabelBattery, Confidence: 0.9, Box: Box{X0: 1, Y0: 2, X1: 30, Y1: 40}},
		{Label: LabelPlastic, Confidence: 0.95},
	})
	require.Equal(t, StatusSorted, v.Status)
	require.Equal(t, BinBlue, v.Bin)
	require.Equal(t, BinBlue.Description(), v.Description)
	require.Equal(t, "Plastic (95.0%) → Blue Bin", v.Message)
	require.NotNil(t, v.Primary)
	require.Equal(t, LabelPlastic, v.Primary.Label)

	require.Len(t, v.Items, 2)
	require.Equal(t, BinRed, v.Items[0].Bin)
	require.True(t, v.Items[0].Recognized)
	require.Equal(t, Box{X0: 1, Y0: 2, X1: 30, Y1: 40}, v.Items[0].Box)
}

func TestClassifyNothingFound(t *testing.T) {
	v := Classify(nil)
	require.Equal(t, StatusNothingFound, v.Status)
	require.Nil(t, v.Primary)
	require.Equal(t, BinColor(""), v.Bin)
	require.Empty(t, v.Items)
	require.NotEmpty(t, v.Message)
}

func TestClassifyUnrecognizedPrimary(t *testing.T) {
	v := Classify([]Detection{
		{Label: LabelPaper, Confidence: 0.6},
		{Label: "foo", Confidence: 0.7},
	})
	require.Equal(t, StatusUnrecognized, v.Status)
	require.Equal(t, BinColor(""), v.Bin)
	require.Contains(t, v.Message, "foo")
	require.False(t, v.Primary.Recognized)
	require.True(t, v.Items[0].Recognized)
	require.False(t, v.Items[1].Recognized)
}

func TestGuideCoversVocabulary(t *testing.T) {
	guide := Guide()
	require.Len(t, guide, 5)

	seen := map[ClassLabel]BinColor{}
	for _, entry := range guide {
		require.Equal(t, entry.Bin.Description(), entry.Description)
		for _, label := range entry.Labels {
			seen[label] = entry.Bin
		}
	}
	require.Len(t, seen, len(Vocabulary()))
	require.Equal(t, BinGreen, seen[LabelBiological])
	require.Equal(t, BinBlack, seen[LabelTrash])
}

func TestTitle(t *testing.T) {
	require.Equal(t, "Cardboard", LabelCardboard.Title())
	require.Equal(t, "", ClassLabel("").Title())
}

func TestPaint(t *testing.T) {
	require.Equal(t, UnrecognizedPaint, BinColor("Purple").Paint())
	require.NotEqual(t, BinRed.Paint(), BinBlue.Paint())
}
