package assert

import "fmt"

func True(condition bool, format string, args ...any) {
	if !condition {
		panic(fmt.Sprintf(format, args...))
	}
}

func NotNil[T any](ptr *T, name string) {
	if ptr == nil {
		panic(fmt.Sprintf("%s must not be nil", name))
	}
}
