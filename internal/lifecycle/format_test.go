package lifecycle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatStatus(t *testing.T) {
	f := NewFormatter()

	tests := []struct {
		status  Status
		variant Variant
	}{
		{StatusPending, VariantSecondary},
		{StatusPendingPayment, VariantSecondary},
		{StatusApproved, VariantDefault},
		{StatusCompleted, VariantOutline},
		{StatusCancelled, VariantDestructive},
		{StatusRejected, VariantDestructive},
		{StatusNoShow, VariantDestructive},
	}

	for _, tt := range tests {
		badge := f.FormatStatus(tt.status)
		assert.Equal(t, tt.variant, badge.Variant, "status %s", tt.status)
		assert.NotEmpty(t, badge.Label, "status %s", tt.status)
	}
}

func TestFormatPaymentStatus(t *testing.T) {
	f := NewFormatter()

	assert.Equal(t, VariantDefault, f.FormatPaymentStatus(PaymentPaid).Variant)
	assert.Equal(t, VariantDestructive, f.FormatPaymentStatus(PaymentFailed).Variant)
	assert.Equal(t, VariantSecondary, f.FormatPaymentStatus(PaymentPending).Variant)
	assert.Equal(t, VariantOutline, f.FormatPaymentStatus(PaymentRefunded).Variant)
}

// Round-trip: formatting the normalized form of an already-canonical string
// is stable.
func TestFormatNormalizeRoundTrip(t *testing.T) {
	f := NewFormatter()
	for s := range defaultStatusBadges {
		once := f.FormatStatus(NormalizeStatus(string(s)))
		twice := f.FormatStatus(NormalizeStatus(string(NormalizeStatus(string(s)))))
		assert.Equal(t, once, twice, "status %s", s)
	}
}

func TestFormatUnknownFallsBackToPending(t *testing.T) {
	f := NewFormatter()
	assert.Equal(t, f.FormatStatus(StatusPending), f.FormatStatus(Status("Bogus")))
	assert.Equal(t, f.FormatPaymentStatus(PaymentPending), f.FormatPaymentStatus(PaymentStatus("Bogus")))
}

func TestLoadLabels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.yaml")
	content := `statuses:
  Approved:
    label: "Da duyet"
  Cancelled:
    label: "Da huy lich"
    variant: "outline"
payments:
  Paid:
    label: "Thanh toan xong"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f := NewFormatter()
	require.NoError(t, f.LoadLabels(path))

	approved := f.FormatStatus(StatusApproved)
	assert.Equal(t, "Da duyet", approved.Label)
	// Variant not overridden keeps the built-in.
	assert.Equal(t, VariantDefault, approved.Variant)

	cancelled := f.FormatStatus(StatusCancelled)
	assert.Equal(t, "Da huy lich", cancelled.Label)
	assert.Equal(t, VariantOutline, cancelled.Variant)

	assert.Equal(t, "Thanh toan xong", f.FormatPaymentStatus(PaymentPaid).Label)
	// Untouched entries keep defaults.
	assert.Equal(t, "Chờ xác nhận", f.FormatStatus(StatusPending).Label)
}

func TestLoadLabelsRejectsUnknownNames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("statuses:\n  Bogus:\n    label: x\n"), 0o644))

	f := NewFormatter()
	assert.Error(t, f.LoadLabels(path))
}

func TestLoadLabelsRejectsAliases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.yaml")
	// "confirm" normalizes to Approved but is not the canonical spelling.
	require.NoError(t, os.WriteFile(path, []byte("statuses:\n  confirm:\n    label: x\n"), 0o644))

	f := NewFormatter()
	assert.Error(t, f.LoadLabels(path))
}

func TestLoadLabelsMissingFile(t *testing.T) {
	f := NewFormatter()
	assert.Error(t, f.LoadLabels("/nonexistent/labels.yaml"))
}
