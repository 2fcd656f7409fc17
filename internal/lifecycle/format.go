package lifecycle

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Variant is the presentation severity of a status badge.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantSecondary   Variant = "secondary"
	VariantDestructive Variant = "destructive"
	VariantOutline     Variant = "outline"
)

// Badge is the displayable form of a canonical status.
type Badge struct {
	Label   string  `yaml:"label"`
	Variant Variant `yaml:"variant"`
}

// Built-in Vietnamese labels. The backend mixes divergent label sets for
// the same canonical status across views; this table is the one source of
// truth, overridable from a resource file.
var defaultStatusBadges = map[Status]Badge{
	StatusPending:        {Label: "Chờ xác nhận", Variant: VariantSecondary},
	StatusPendingPayment: {Label: "Chờ thanh toán", Variant: VariantSecondary},
	StatusApproved:       {Label: "Đã xác nhận", Variant: VariantDefault},
	StatusCompleted:      {Label: "Hoàn thành", Variant: VariantOutline},
	StatusCancelled:      {Label: "Đã hủy", Variant: VariantDestructive},
	StatusRejected:       {Label: "Đã từ chối", Variant: VariantDestructive},
	StatusNoShow:         {Label: "Vắng mặt", Variant: VariantDestructive},
}

var defaultPaymentBadges = map[PaymentStatus]Badge{
	PaymentUnpaid:    {Label: "Chưa thanh toán", Variant: VariantOutline},
	PaymentPending:   {Label: "Đang xử lý", Variant: VariantSecondary},
	PaymentPaid:      {Label: "Đã thanh toán", Variant: VariantDefault},
	PaymentFailed:    {Label: "Thanh toán thất bại", Variant: VariantDestructive},
	PaymentRefunded:  {Label: "Đã hoàn tiền", Variant: VariantOutline},
	PaymentCancelled: {Label: "Đã hủy thanh toán", Variant: VariantDestructive},
}

// Formatter maps canonical statuses to badges. The zero value is not
// usable; construct with NewFormatter.
type Formatter struct {
	status  map[Status]Badge
	payment map[PaymentStatus]Badge
}

// NewFormatter returns a formatter with the built-in label table.
func NewFormatter() *Formatter {
	status := make(map[Status]Badge, len(defaultStatusBadges))
	for k, v := range defaultStatusBadges {
		status[k] = v
	}
	payment := make(map[PaymentStatus]Badge, len(defaultPaymentBadges))
	for k, v := range defaultPaymentBadges {
		payment[k] = v
	}
	return &Formatter{status: status, payment: payment}
}

type labelsFile struct {
	Statuses map[string]Badge `yaml:"statuses"`
	Payments map[string]Badge `yaml:"payments"`
}

// LoadLabels overlays badge overrides from a yaml resource file. Entries
// with unknown canonical names are rejected, partial overrides (label only)
// keep the built-in variant.
func (f *Formatter) LoadLabels(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file labelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse labels file: %w", err)
	}

	for name, badge := range file.Statuses {
		canonical, ok := LookupStatus(name)
		if !ok || string(canonical) != name {
			return fmt.Errorf("unknown canonical status %q in %s", name, path)
		}
		f.status[canonical] = mergeBadge(f.status[canonical], badge)
	}
	for name, badge := range file.Payments {
		canonical, ok := LookupPaymentStatus(name)
		if !ok || string(canonical) != name {
			return fmt.Errorf("unknown canonical payment status %q in %s", name, path)
		}
		f.payment[canonical] = mergeBadge(f.payment[canonical], badge)
	}
	return nil
}

func mergeBadge(base, override Badge) Badge {
	if override.Label != "" {
		base.Label = override.Label
	}
	if override.Variant != "" {
		base.Variant = override.Variant
	}
	return base
}

// FormatStatus returns the badge for a canonical status. Unknown values
// fall back to the Pending badge, mirroring the normalizer's fallback.
func (f *Formatter) FormatStatus(s Status) Badge {
	if b, ok := f.status[s]; ok {
		return b
	}
	return f.status[StatusPending]
}

// FormatPaymentStatus returns the badge for a canonical payment status.
func (f *Formatter) FormatPaymentStatus(p PaymentStatus) Badge {
	if b, ok := f.payment[p]; ok {
		return b
	}
	return f.payment[PaymentPending]
}
