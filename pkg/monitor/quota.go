package monitor

import (
	"errors"
	"fmt"

	"github.com/mailops/ses-guardian/pkg/model"
)

// ErrInvalidQuotaConfig marks a nonsensical quota configuration (max volume
// zero or negative). It is fatal to the current cycle, never to the process.
var ErrInvalidQuotaConfig = errors.New("invalid quota configuration")

// EvaluateQuota computes quota utilization and classifies it. Utilization is
// (volume / maxVolume) * 100 and may legitimately exceed 100 when the
// account is over quota; that is the signal, not an error. Classification is
// inclusive: >= criticalPercent wins, else >= warningPercent, else OK.
func EvaluateQuota(volume, maxVolume, warningPercent, criticalPercent float64, metricTimestamp string) (model.QuotaVerdict, error) {
	if maxVolume <= 0 {
		return model.QuotaVerdict{}, fmt.Errorf("%w: max volume is %v", ErrInvalidQuotaConfig, maxVolume)
	}

	utilization := (volume / maxVolume) * 100

	status := model.StatusOK
	switch {
	case utilization >= criticalPercent:
		status = model.StatusCritical
	case utilization >= warningPercent:
		status = model.StatusWarning
	}

	return model.QuotaVerdict{
		Volume:             volume,
		MaxVolume:          maxVolume,
		UtilizationPercent: utilization,
		Status:             status,
		MetricTimestamp:    metricTimestamp,
	}, nil
}
