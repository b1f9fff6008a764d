package strategy

import "solar-sizing/internal/model"

type Context struct {
	Index  int
	Period model.Period
	State  model.BatteryState
	Params model.BatteryParams
}

type Strategy interface {
	Name() string
	Decide(ctx Context) model.Dispatch
}
