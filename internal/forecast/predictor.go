package forecast

// MinTrainRows is the smallest feature table the model will train on.
// Fewer rows is the insufficient-data outcome, not an error.
const MinTrainRows = 6

// Predictor owns one trained model instance. Every evaluation run
// constructs its own Predictor; nothing is shared across requests.
type Predictor struct {
	cfg   gbmConfig
	model *gbm
}

// NewPredictor creates an untrained predictor with default
// hyperparameters.
func NewPredictor() *Predictor {
	return &Predictor{cfg: defaultGBMConfig}
}

// Train fits the model on the feature table. It returns false without
// training when the table has fewer than MinTrainRows rows.
func (p *Predictor) Train(rows []MonthlyRow) bool {
	if len(rows) < MinTrainRows {
		return false
	}

	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		x[i] = r.features()
		y[i] = r.Expenses
	}

	p.model = trainGBM(p.cfg, x, y)
	return true
}

// PredictNextMonth builds the feature row for the month following the
// last observed one and returns the predicted expense sum. The second
// return value is false when the model is untrained or the table is
// empty.
func (p *Predictor) PredictNextMonth(rows []MonthlyRow) (float64, bool) {
	if p.model == nil || len(rows) == 0 {
		return 0, false
	}

	last := rows[len(rows)-1]

	// Shift the lag chain forward by one month: the last observed
	// expense value becomes the new lag-1, and so on.
	tail := rows
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}
	var roll float64
	for _, r := range tail {
		roll += r.Expenses
	}
	roll /= float64(len(tail))

	nextMonth := int(last.Month.AddDate(0, 1, 0).Month()) // December wraps to January

	x := []float64{last.Expenses, last.Lag1, last.Lag2, roll, float64(nextMonth)}
	return p.model.predict(x), true
}
