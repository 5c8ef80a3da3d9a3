// Package validator validates structs with go-playground/validator and
// reports failures as a flat list of field errors keyed by JSON path.
//
//	type ImagePath struct {
//	    AnniversaryYear int    `json:"anniversaryYear" validate:"gte=1"`
//	    URL             string `json:"url" validate:"required,url"`
//	}
//
//	if err := validator.ValidateStruct(cfg); err != nil {
//	    if validator.IsValidationError(err) {
//	        errs := validator.ExtractValidationErrors(err)
//	        // errs[0].Field == "imagePaths[0].url"
//	    }
//	}
package validator
