package validators

import (
	"turfbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

var number = bson.A{"double", "int", "long", "decimal"}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"turf_id",
			"user_id",
			"date",
			"start_time",
			"end_time",
			"total_price",
			"status",
			"payment_status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"turf_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  `^([01]\d|2[0-3]):[0-5]\d$`,
			},

			"end_time": bson.M{
				"bsonType": "string",
				"pattern":  `^([01]\d|2[0-3]):[0-5]\d$`,
			},

			"applied_price_per_slot": bson.M{
				"bsonType": number,
				"minimum":  0,
			},

			"total_price": bson.M{
				"bsonType": number,
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					model.BookingPending,
					model.BookingConfirmed,
					model.BookingCancelled,
					model.BookingExpired,
				},
			},

			"payment_status": bson.M{
				"bsonType": "string",
				"enum": []string{
					model.PaymentUnpaid,
					model.PaymentPaid,
					model.PaymentRefunded,
				},
			},

			"settlement_method": bson.M{
				"bsonType": "string",
				"enum":     []string{model.SettlementGateway, model.SettlementManual},
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
