package models

// QueryType labels a store query in timeout and failure errors.
type QueryType string

const (
	QueryTypeUserProfile   QueryType = "user_profile"
	QueryTypeCatalog       QueryType = "catalog"
	QueryTypeCatalogDelete QueryType = "catalog_delete"
	QueryTypePredictionLog QueryType = "prediction_log"
)
