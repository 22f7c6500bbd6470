package weaviate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/weaviate/weaviate/entities/models"
)

func TestBatchError(t *testing.T) {
	assert.NoError(t, batchError(nil))
	assert.NoError(t, batchError([]models.ObjectsGetResponse{{}, {Result: &models.ObjectsGetResponseAO2Result{}}}))

	failed := []models.ObjectsGetResponse{
		{Result: &models.ObjectsGetResponseAO2Result{}},
		{Result: &models.ObjectsGetResponseAO2Result{
			Errors: &models.ErrorResponse{Error: []*models.ErrorResponseErrorItems0{{Message: "vector dimension mismatch"}}},
		}},
	}
	err := batchError(failed)
	if assert.Error(t, err) {
		assert.Equal(t, "vector dimension mismatch", err.Error())
	}
}
