package cars

type CreateCarRequest struct {
	ClientID     int64   `json:"client_id" validate:"required,gt=0"`
	LicensePlate string  `json:"license_plate" validate:"required,max=20"`
	Make         string  `json:"make" validate:"required,max=60"`
	Model        string  `json:"model" validate:"required,max=60"`
	Color        *string `json:"color" validate:"omitempty,max=40"`
	Year         *int32  `json:"year" validate:"omitempty,gte=1900,lte=2100"`
}
