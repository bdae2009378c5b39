package model

// 配送先・請求先住所（注文にJSONで埋め込む）
type Address struct {
	//宛名
	Name string `json:"name" validate:"required,max=255"`

	//電話番号（10桁）
	Phone string `json:"phone" validate:"required,numeric,len=10"`

	//番地など
	Line1 string `json:"line1" validate:"required,max=255"`

	//建物名など
	Line2 string `json:"line2,omitempty" validate:"max=255"`

	City  string `json:"city" validate:"required,max=100"`
	State string `json:"state" validate:"required,max=100"`

	//郵便番号（6桁）
	Pincode string `json:"pincode" validate:"required,numeric,len=6"`

	Country string `json:"country" validate:"omitempty,max=100"`
}
