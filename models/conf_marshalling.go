// conf marshalling
package models

import (
	"bytes"
	"encoding"
	"fmt"
	"log"
	"reflect"
)

const (
	nameTag       = "toml"
	singleLineTag = "singleline"
)

type Metadata struct {
	name            string
	arrayKind       bool
	singleArrayLine bool
	structKind      bool
	anonField       bool
}

func getMetaData(rsf reflect.StructField) (meta Metadata) {
	rsfT := rsf.Type
	meta.name = rsf.Tag.Get(nameTag)

	if meta.name == "" {
		meta.name = rsf.Name
	}

	if rsfT.Kind() == reflect.Array || rsfT.Kind() == reflect.Slice {
		meta.arrayKind = true

		if rsfT.Elem().Kind() == reflect.String && rsf.Tag.Get(singleLineTag) == "true" {
			meta.singleArrayLine = true
		}
	} else if rsfT.Kind() == reflect.Struct {
		meta.structKind = true
		meta.anonField = rsf.Anonymous
		if !(rsfT.Implements(reflect.TypeFor[encoding.TextMarshaler]())) {
			log.Panicln("struct needs to implement TextMarshaler")
		}
	}

	return
}

func writeBufferString(buffer *bytes.Buffer, str string) error {
	if _, err := buffer.WriteString(str); err != nil {
		return err
	}
	return nil
}

func handlePrimitve(buffer *bytes.Buffer, rv reflect.Value, meta Metadata) error {
	switch rv.Kind() {
	case reflect.String:
		if rv.String() == "" {
			return nil
		}
		return writeBufferString(buffer, fmt.Sprintf("%s = %s\n", meta.name, rv.String()))
	case reflect.Bool:
		// wg-quick treats an absent flag as false
		if !rv.Bool() {
			return nil
		}
		return writeBufferString(buffer, fmt.Sprintf("%s = true\n", meta.name))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// zero means unset, e.g. PersistentKeepalive
		if rv.Int() == 0 {
			return nil
		}
		return writeBufferString(buffer, fmt.Sprintf("%s = %d\n", meta.name, rv.Int()))
	default:
		log.Panicln("unkown primitive type")
	}
	return nil
}

func handleStruct(buffer *bytes.Buffer, rv reflect.Value, meta Metadata) error {
	if !meta.anonField {
		if err := writeBufferString(buffer, fmt.Sprintf("[%s]\n", meta.name)); err != nil {
			return err
		}
	}
	if buf, err := rv.Interface().(encoding.TextMarshaler).MarshalText(); err != nil {
		return err
	} else if _, err := buffer.Write(buf); err != nil {
		return err
	}

	if !meta.anonField {
		return writeBufferString(buffer, "\n")
	}
	return nil
}

func handleSingleArrayString(buffer *bytes.Buffer, rv reflect.Value, meta Metadata) error {
	if rv.Len() == 0 {
		return nil
	}

	if err := writeBufferString(buffer, fmt.Sprintf("%s = ", meta.name)); err != nil {
		return err
	}

	for i := 0; i < rv.Len(); i++ {
		str := rv.Index(i).String()
		if i > 0 {
			str = ", " + str
		}
		if err := writeBufferString(buffer, str); err != nil {
			return err
		}
	}
	return writeBufferString(buffer, "\n")
}

func handleArray(buffer *bytes.Buffer, rv reflect.Value, meta Metadata) error {
	if meta.singleArrayLine {
		return handleSingleArrayString(buffer, rv, meta)
	}

	arrElemT := rv.Type().Elem()
	if arrElemT.Kind() == reflect.Struct {
		if !arrElemT.Implements(reflect.TypeFor[encoding.TextMarshaler]()) {
			log.Panicln("struct needs to implement TextMarshaler")
		}

		for i := 0; i < rv.Len(); i++ {
			if err := handleStruct(buffer, rv.Index(i), meta); err != nil {
				return err
			}
		}
		return nil
	}

	for i := 0; i < rv.Len(); i++ {
		if err := handlePrimitve(buffer, rv.Index(i), meta); err != nil {
			return err
		}
	}
	return nil
}

func confMarshallStruct(v any) (text []byte, err error) {
	rv := reflect.ValueOf(v)
	rvT := rv.Type()

	if rv.Kind() != reflect.Struct {
		log.Panicln("only called on struct")
	}

	var buffer bytes.Buffer
	for i := 0; i < rv.NumField(); i++ {
		val := rv.Field(i)
		meta := getMetaData(rvT.Field(i))
		if meta.arrayKind {
			err = handleArray(&buffer, val, meta)
		} else if meta.structKind {
			err = handleStruct(&buffer, val, meta)
		} else {
			err = handlePrimitve(&buffer, val, meta)
		}
		if err != nil {
			return nil, err
		}
	}
	return buffer.Bytes(), nil
}

// --- TextMarshaler implemented by types ---
func (v Peer) MarshalText() (text []byte, err error) {
	return confMarshallStruct(v)
}

func (v Interface) MarshalText() (text []byte, err error) {
	return confMarshallStruct(v)
}

func (v ServerInterface) MarshalText() (text []byte, err error) {
	return confMarshallStruct(v)
}

func (v Config) MarshalText() (text []byte, err error) {
	return confMarshallStruct(v)
}

func (v ClientConfig) MarshalText() (text []byte, err error) {
	return confMarshallStruct(v)
}

func (v ServerConfig) MarshalText() (text []byte, err error) {
	return confMarshallStruct(v)
}
