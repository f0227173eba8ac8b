package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"reference",
			"user_ref",
			"facility_id",
			"slot_id",
			"vehicle",
			"start_time",
			"end_time",
			"amount",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"reference": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"user_ref": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"facility_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"slot_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"slot_number": bson.M{
				"bsonType": "string",
			},

			"vehicle": bson.M{
				"bsonType": "object",
				"required": []string{"type", "number"},
				"properties": bson.M{
					"type": bson.M{
						"bsonType": "string",
						"enum": []string{
							"car",
							"bike",
							"ev",
							"handicap",
							"truck",
						},
					},
					"number": bson.M{
						"bsonType": "string",
					},
				},
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"amount": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},

			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"cancelled",
					"completed",
					"no_show",
					"refunded",
				},
			},

			"token": bson.M{
				"bsonType": "string",
			},

			// Lifecycle updates write the optional fields as null before the
			// corresponding event happens, so null is a legal type for them.
			"payment": bson.M{
				"bsonType": []string{"object", "null"},
				"required": []string{"status"},
				"properties": bson.M{
					"status": bson.M{
						"bsonType": "string",
						"enum": []string{
							"pending",
							"completed",
							"failed",
							"refunded",
							"partially_refunded",
						},
					},
					"gateway_order_id": bson.M{
						"bsonType": "string",
					},
					"gateway_payment_id": bson.M{
						"bsonType": "string",
					},
					"refund_id": bson.M{
						"bsonType": "string",
					},
					"refund_amount": bson.M{
						"bsonType": "number",
						"minimum":  0,
					},
					"paid_at": bson.M{
						"bsonType": "date",
					},
				},
			},

			"cancellation": bson.M{
				"bsonType": []string{"object", "null"},
				"required": []string{"cancelled_by", "cancelled_at"},
				"properties": bson.M{
					"cancelled_by": bson.M{
						"bsonType": "string",
						"enum": []string{
							"user",
							"owner",
							"system",
							"admin",
						},
					},
					"cancelled_at": bson.M{
						"bsonType": "date",
					},
					"refund_owed": bson.M{
						"bsonType": "bool",
					},
				},
			},

			"check_in_time": bson.M{
				"bsonType": []string{"date", "null"},
			},

			"check_out_time": bson.M{
				"bsonType": []string{"date", "null"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
