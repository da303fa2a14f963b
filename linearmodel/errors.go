package linearmodel

import "fmt"

func errFeatureLen(got, expected int) error {
	return fmt.Errorf("got %d features in design matrix, but expected %d, %w", got, expected, ErrFeatureLenMismatch)
}

func errTargetLen(xm, ym int) error {
	return fmt.Errorf("training data has %d rows and target has %d row, %w", xm, ym, ErrTargetLenMismatch)
}
