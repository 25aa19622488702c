package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/securegpt/rag-gateway/utils"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

// decodeAndValidate decodes a JSON request body into dst and runs struct
// validation. On failure it writes the 400 response itself and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		utils.WriteBadRequest(w, "invalid JSON body", nil)
		return false
	}

	if err := utils.ValidateStruct(dst); err != nil {
		var verr *utils.ValidationError
		if errors.As(err, &verr) {
			utils.WriteBadRequest(w, "validation failed", verr.Details())
		} else {
			utils.WriteBadRequest(w, "validation failed", nil)
		}
		return false
	}
	return true
}
