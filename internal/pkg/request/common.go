package request

// ListParams holds the pagination and ordering query parameters shared by list endpoints.
type ListParams struct {
	Page      int    `form:"page,default=1" binding:"min=1"`
	PageSize  int    `form:"page_size,default=20" binding:"min=1,max=100"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// HotelRequest binds the hotel path parameter every tenant-scoped route carries.
type HotelRequest struct {
	HotelID string `uri:"hotel_id" binding:"required,uuid"`
}

// ByIDRequest is a common struct for endpoints that require a hotel-scoped ID path parameter.
type ByIDRequest struct {
	HotelID string `uri:"hotel_id" binding:"required,uuid"`
	ID      string `uri:"id" binding:"required,uuid"`
}

// Validate performs custom validation for ByIDRequest.
func (r *ByIDRequest) Validate() error {
	return nil
}
