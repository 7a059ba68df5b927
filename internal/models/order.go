package models

type ExecStatus string

const (
	ExecFilled  ExecStatus = "filled"
	ExecSkipped ExecStatus = "skipped"
	ExecError   ExecStatus = "error"
)

// OrderRequest — то, что координатор отдаёт исполнителю.
type OrderRequest struct {
	Symbol   string
	Side     Side
	Price    float64
	TP       float64
	SL       float64
	Quantity float64
	Leverage int
	Score    int

	Snapshot IndicatorSnapshot
}

// ExecutionResult — ответ исполнителя.
type ExecutionResult struct {
	Status    ExecStatus
	OrderID   string
	Quantity  float64
	FillPrice float64
}
