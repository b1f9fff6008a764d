package strategy

import "solar-sizing/internal/model"

// SelfConsumption charges from whatever is being exported and discharges
// against eligible night import. The battery itself clips both requests.
type SelfConsumption struct{}

func (SelfConsumption) Name() string { return "self_consumption" }

func (SelfConsumption) Decide(ctx Context) model.Dispatch {
	return model.Dispatch{
		ChargeKWh:    ctx.Period.ExportKWh,
		DischargeKWh: ctx.Period.NightImportKWh,
	}
}
