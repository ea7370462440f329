package validators

import "go.mongodb.org/mongo-driver/bson"

var AppointmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"patient_id",
			"doctor_id",
			"appointment_date",
			"appointment_time",
			"reason",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"patient_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"doctor_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"appointment_date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"appointment_time": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{2}:\d{2}$`,
			},

			"reason": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 500,
			},

			"status": bson.M{
				"enum": []string{"SCHEDULED", "PENDING", "CONFIRMED", "COMPLETED", "CANCELLED"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
