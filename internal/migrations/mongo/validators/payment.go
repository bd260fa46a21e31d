package validators

import (
	"turfbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

var PaymentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"booking_id", "transaction_id", "amount", "status", "method", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":            bson.M{"bsonType": "objectId"},
			"booking_id":     bson.M{"bsonType": "string", "minLength": 24, "maxLength": 24},
			"transaction_id": bson.M{"bsonType": "string", "minLength": 1},
			"amount":         bson.M{"bsonType": number, "minimum": 0},
			"currency":       bson.M{"bsonType": "string"},
			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					model.PaymentStatusPending,
					model.PaymentStatusSuccess,
					model.PaymentStatusFailed,
					model.PaymentStatusCancelled,
					model.PaymentStatusRefundRequired,
				},
			},
			"method":       bson.M{"bsonType": "string", "enum": []string{model.PaymentMethodGateway, model.PaymentMethodManual}},
			"gateway_data": bson.M{"bsonType": "object"},
			"created_at":   bson.M{"bsonType": "date"},
		},
	},
}

var BookingLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "owner", "expires_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"owner":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
