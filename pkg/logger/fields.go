package logger

// Allow arbitrary fields on a log.
// Inspired by the logrus.Fields API
// https://github.com/sirupsen/logrus
type Fields map[string]string

const (
	FieldNameBuildID     = "buildID"
	FieldNameCombination = "combination"
)

func (f Fields) merge(other Fields) Fields {
	if len(other) == 0 {
		return f
	}
	res := make(Fields, len(f)+len(other))
	for k, v := range f {
		res[k] = v
	}
	for k, v := range other {
		res[k] = v
	}
	return res
}
