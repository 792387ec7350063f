package voucher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"photogo/internal/domain"
	"photogo/internal/integrations/storefront"
	"photogo/internal/pkg/datefmt"
)

const (
	pageSize = 50
	maxPages = 20
)

type Source interface {
	ListUserVouchers(ctx context.Context, userID int64, page, limit int) (*storefront.VoucherPage, error)
}

// Candidate is a voucher owned by the user, annotated for the current subtotal.
type Candidate struct {
	Voucher    domain.Voucher `json:"voucher"`
	Applicable bool           `json:"applicable"`
	Reason     Reason         `json:"reason,omitempty"`
}

type Service struct {
	source Source
	loc    *time.Location
	log    *zap.Logger
}

// NewService builds the service. loc is used for date-only validity bounds.
func NewService(source Source, loc *time.Location, log *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{source: source, loc: loc, log: log}
}

func (s *Service) ListForUser(ctx context.Context, userID int64, subtotal int64, now time.Time) ([]Candidate, error) {
	vouchers, err := s.listAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(vouchers))
	for _, v := range vouchers {
		c := Candidate{Voucher: v, Applicable: true}
		if err := Check(&v, subtotal, now); err != nil {
			c.Applicable = false
			var na *NotApplicableError
			if errors.As(err, &na) {
				c.Reason = na.Reason
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// FindByCode resolves a code among the user's vouchers, ignoring case.
func (s *Service) FindByCode(ctx context.Context, userID int64, code string) (*domain.Voucher, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}
	vouchers, err := s.listAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, v := range vouchers {
		if strings.EqualFold(v.Code, code) {
			found := v
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
}

func (s *Service) listAll(ctx context.Context, userID int64) ([]domain.Voucher, error) {
	var out []domain.Voucher
	for page := 1; page <= maxPages; page++ {
		resp, err := s.source.ListUserVouchers(ctx, userID, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrListFailed, err)
		}
		for _, uv := range resp.Data {
			v, err := s.toDomain(uv)
			if err != nil {
				s.log.Warn("voucher.list: skipping malformed voucher",
					zap.Int64("user_id", userID), zap.String("voucher_id", uv.VoucherID.String()), zap.Error(err))
				continue
			}
			out = append(out, v)
		}
		if len(resp.Data) == 0 || page >= resp.Meta.TotalPages {
			break
		}
	}
	return out, nil
}

func (s *Service) toDomain(uv storefront.UserVoucher) (domain.Voucher, error) {
	raw := uv.Voucher
	dt, err := ParseDiscountType(raw.DiscountType)
	if err != nil {
		return domain.Voucher{}, err
	}

	v := domain.Voucher{
		ID:            uv.VoucherID.String(),
		Code:          strings.TrimSpace(raw.Code),
		Description:   raw.Description,
		DiscountType:  dt,
		DiscountValue: raw.DiscountValue,
		MinPrice:      money(raw.MinPrice),
		MaxPrice:      money(raw.MaxPrice),
		Status:        domain.VoucherActive,
	}
	if st := strings.ToLower(strings.TrimSpace(raw.Status)); st != "" {
		v.Status = domain.VoucherStatus(st)
	}
	if raw.StartDate != "" {
		from, err := s.parseBound(raw.StartDate, false)
		if err != nil {
			return domain.Voucher{}, err
		}
		v.ValidFrom = &from
	}
	if raw.EndDate != "" {
		to, err := s.parseBound(raw.EndDate, true)
		if err != nil {
			return domain.Voucher{}, err
		}
		v.ValidTo = &to
	}
	return v, nil
}

// ParseDiscountType accepts the English and Vietnamese labels the storefront uses.
func ParseDiscountType(s string) (domain.DiscountType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percentage", "percent", "phần trăm":
		return domain.DiscountPercentage, nil
	case "fixed", "amount", "cố định":
		return domain.DiscountFixed, nil
	}
	return "", fmt.Errorf("unknown discount type %q", s)
}

// parseBound reads RFC3339 timestamps or bare dates. A bare end date covers
// the whole day.
func (s *Service) parseBound(v string, end bool) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}

	day, err := time.ParseInLocation(datefmt.InternalLayout, v, s.loc)
	if err != nil {
		internal, perr := datefmt.ExternalToInternal(v)
		if perr != nil {
			return time.Time{}, perr
		}
		day, err = time.ParseInLocation(datefmt.InternalLayout, internal, s.loc)
		if err != nil {
			return time.Time{}, err
		}
	}
	if end {
		return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return day, nil
}

func money(d *decimal.Decimal) *int64 {
	if d == nil {
		return nil
	}
	v := d.Round(0).IntPart()
	return &v
}
