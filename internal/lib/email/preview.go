package email

// PreviewData contains sample template data for local preview/testing.
//
// It maps:
//
//	templateName -> (templateVariableName -> exampleValue)
var PreviewData = map[string]map[string]string{
	"welcome": {
		"UserFirstName": "Ada",
	},
	"enrollment_confirmed": {
		"UserFirstName": "Ada",
		"SessionTitle":  "Linear Algebra Review",
	},
}
