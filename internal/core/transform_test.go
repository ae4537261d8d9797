package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestTransform(t *testing.T) {
	content := "name.firstName,name.lastName,age,address.line1,address.city,gender,contact.phone\n" +
		"Aarav,Sharma,28,\"12, MG Road\",Pune,male,98200\n"

	records, err := Decode(content, nil)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	users, err := Transform(records)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("got %d users, want 1", len(users))
	}

	want := User{
		Name:    "Aarav Sharma",
		Age:     28,
		Address: Object{"line1": Scalar("12, MG Road"), "city": Scalar("Pune")},
		AdditionalInfo: Object{
			"gender":  Scalar("male"),
			"contact": Object{"phone": Scalar("98200")},
		},
	}
	if !reflect.DeepEqual(users[0], want) {
		t.Errorf("user = %#v, want %#v", users[0], want)
	}
}

func TestTransform_Examples(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    User
	}{
		{
			name: "city and state address with flat extras",
			content: "name.firstName,name.lastName,age,address.city,address.state,gender,phone\n" +
				"Aarav,Sharma,30,Mumbai,Maharashtra,male,9123456789\n",
			want: User{
				Name:           "Aarav Sharma",
				Age:            30,
				Address:        Object{"city": Scalar("Mumbai"), "state": Scalar("Maharashtra")},
				AdditionalInfo: Object{"gender": Scalar("male"), "phone": Scalar("9123456789")},
			},
		},
		{
			name:    "quoted comma in last name",
			content: "name.firstName,name.lastName,age\nJohn,\"Doe, Jr.\",30\n",
			want:    User{Name: "John Doe, Jr.", Age: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Decode(tt.content, nil)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			users, err := Transform(records)
			if err != nil {
				t.Fatalf("Transform() error: %v", err)
			}
			if len(users) != 1 || !reflect.DeepEqual(users[0], tt.want) {
				t.Errorf("users = %#v, want [%#v]", users, tt.want)
			}
		})
	}
}

func TestTransform_OptionalColumns(t *testing.T) {
	tests := []struct {
		name     string
		fields   Object
		wantAddr Object
		wantInfo Object
	}{
		{
			name: "no address and no extras",
			fields: Object{
				"name": Object{"firstName": Scalar("A"), "lastName": Scalar("B")},
				"age":  Scalar("1"),
			},
		},
		{
			name: "scalar address dropped",
			fields: Object{
				"name":    Object{"firstName": Scalar("A"), "lastName": Scalar("B")},
				"age":     Scalar("1"),
				"address": Scalar("somewhere"),
			},
		},
		{
			name: "extra name keys stay out of additional info",
			fields: Object{
				"name": Object{"firstName": Scalar("A"), "lastName": Scalar("B"), "middle": Scalar("C")},
				"age":  Scalar("1"),
				"note": Scalar("x"),
			},
			wantInfo: Object{"note": Scalar("x")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := TransformRecord(DecodedRecord{Line: 2, Fields: tt.fields})
			if err != nil {
				t.Fatalf("TransformRecord() error: %v", err)
			}
			if !reflect.DeepEqual(u.Address, tt.wantAddr) {
				t.Errorf("Address = %#v, want %#v", u.Address, tt.wantAddr)
			}
			if !reflect.DeepEqual(u.AdditionalInfo, tt.wantInfo) {
				t.Errorf("AdditionalInfo = %#v, want %#v", u.AdditionalInfo, tt.wantInfo)
			}
		})
	}
}

func TestTransform_AllOrNothing(t *testing.T) {
	content := "name.firstName,name.lastName,age\n" +
		"John,Doe,30\n" +
		"Jane,Roe,\n" +
		"Max,Moe,50\n"

	records, err := Decode(content, nil)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	users, err := Transform(records)
	if users != nil {
		t.Errorf("users = %v, want nil", users)
	}

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if vErr.Line != 3 || vErr.Field != "age" {
		t.Errorf("ValidationError = %+v, want line 3 field age", vErr)
	}
	if got, want := vErr.Error(), "row 3: missing mandatory field 'age'"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTransformRecord_Validation(t *testing.T) {
	tests := []struct {
		name      string
		fields    Object
		wantField string
		wantValue string
	}{
		{
			name:      "missing first name",
			fields:    Object{"name": Object{"lastName": Scalar("Doe")}, "age": Scalar("3")},
			wantField: "name.firstName",
		},
		{
			name:      "empty last name",
			fields:    Object{"name": Object{"firstName": Scalar("J"), "lastName": Scalar("")}, "age": Scalar("3")},
			wantField: "name.lastName",
		},
		{
			name:      "name is a scalar",
			fields:    Object{"name": Scalar("John Doe"), "age": Scalar("3")},
			wantField: "name.firstName",
		},
		{
			name:      "age is an object",
			fields:    Object{"name": Object{"firstName": Scalar("J"), "lastName": Scalar("D")}, "age": Object{"years": Scalar("3")}},
			wantField: "age",
		},
		{
			name:      "age not a number",
			fields:    Object{"name": Object{"firstName": Scalar("J"), "lastName": Scalar("D")}, "age": Scalar("abc")},
			wantField: "age",
			wantValue: "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TransformRecord(DecodedRecord{Line: 7, Fields: tt.fields})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if vErr.Line != 7 {
				t.Errorf("Line = %d, want 7", vErr.Line)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", vErr.Field, tt.wantField)
			}
			if vErr.Value != tt.wantValue {
				t.Errorf("Value = %q, want %q", vErr.Value, tt.wantValue)
			}
		})
	}
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"30", 30, true},
		{" 42 ", 42, true},
		{"-5", -5, true},
		{"+7", 7, true},
		{"30 years", 30, true},
		{"4.5", 4, true},
		{"007", 7, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{"x30", 0, false},
		{"99999999999999999999999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAge(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseAge(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
