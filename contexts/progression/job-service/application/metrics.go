package application

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ApprovalMetrics records stage approvals and the bonus each one paid. A nil
// *ApprovalMetrics records nothing.
type ApprovalMetrics struct {
	approvals     metric.Int64Counter
	bonusXP       metric.Int64Histogram
	bonusCurrency metric.Int64Histogram
}

func NewApprovalMetrics(meter metric.Meter) (*ApprovalMetrics, error) {
	approvals, err := meter.Int64Counter("contracthub.job.approvals",
		metric.WithDescription("Stage approvals, labelled by outcome"),
	)
	if err != nil {
		return nil, err
	}
	bonusXP, err := meter.Int64Histogram("contracthub.settlement.bonus_xp",
		metric.WithDescription("Event bonus XP added on top of the stage payout"),
	)
	if err != nil {
		return nil, err
	}
	bonusCurrency, err := meter.Int64Histogram("contracthub.settlement.bonus_currency",
		metric.WithDescription("Event bonus currency added on top of the stage payout"),
	)
	if err != nil {
		return nil, err
	}
	return &ApprovalMetrics{
		approvals:     approvals,
		bonusXP:       bonusXP,
		bonusCurrency: bonusCurrency,
	}, nil
}

// RecordApproval counts one answered approval. Bonus histograms only see
// fresh settlements so a replay is never measured twice.
func (m *ApprovalMetrics) RecordApproval(ctx context.Context, bonusXP, bonusCurrency int64, completed, replayed bool) {
	if m == nil {
		return
	}
	outcome := "approved"
	switch {
	case replayed:
		outcome = "replayed"
	case completed:
		outcome = "completed"
	}
	m.approvals.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if replayed {
		return
	}
	m.bonusXP.Record(ctx, bonusXP)
	m.bonusCurrency.Record(ctx, bonusCurrency)
}

// RecordFailure counts an approval that resolved to an error.
func (m *ApprovalMetrics) RecordFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.approvals.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
}
