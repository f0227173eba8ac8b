package validators

import "go.mongodb.org/mongo-driver/bson"

var SlotValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"facility_id",
			"number",
			"type",
			"price_per_hour",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"facility_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"number": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 20,
			},

			"floor": bson.M{
				"bsonType":  "string",
				"maxLength": 20,
			},

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

			"price_per_hour": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},

			"features": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "string",
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"available",
					"occupied",
					"reserved",
					"maintenance",
				},
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
