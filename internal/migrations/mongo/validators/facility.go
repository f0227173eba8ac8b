package validators

import "go.mongodb.org/mongo-driver/bson"

var FacilityValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"owner_ref",
			"address",
			"city",
			"price_per_hour",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"owner_ref": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"address": bson.M{
				"bsonType":  "string",
				"minLength": 5,
				"maxLength": 200,
			},

			"city": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 60,
			},

			// Updates rewrite the optional fields wholesale, so a facility
			// without a location, amenities or an hours table stores null.
			"location": bson.M{
				"bsonType": []string{"object", "null"},
				"required": []string{"lat", "lng"},
				"properties": bson.M{
					"lat": bson.M{
						"bsonType": "number",
						"minimum":  -90,
						"maximum":  90,
					},
					"lng": bson.M{
						"bsonType": "number",
						"minimum":  -180,
						"maximum":  180,
					},
				},
			},

			"price_per_hour": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},

			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"website": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"amenities": bson.M{
				"bsonType": []string{"array", "null"},
				"items": bson.M{
					"bsonType": "string",
				},
			},

			"is_24x7": bson.M{
				"bsonType": "bool",
			},

			"operating_hours": bson.M{
				"bsonType": []string{"object", "null"},
				"additionalProperties": bson.M{
					"bsonType": "object",
					"required": []string{"open", "close"},
					"properties": bson.M{
						"open": bson.M{
							"bsonType": "string",
						},
						"close": bson.M{
							"bsonType": "string",
						},
					},
				},
			},

			"total_slots": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"available_slots": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"is_active": bson.M{
				"bsonType": "bool",
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
