package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// maxRequestBodySize はリクエストボディの最大サイズ（1MB）。
const maxRequestBodySize = 1 << 20

// decodeRequest はリクエストボディをdstに読み込む。
// application/json に加えて application/x-www-form-urlencoded と multipart/form-data を受け付ける。
// フォームの場合は各キーの先頭の値を文字列として扱い、dstのjsonタグに従って割り当てる。
// ボディが空の場合はdstを変更せずnilを返す。
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		return decodeForm(r, dst, false)
	case "multipart/form-data":
		return decodeForm(r, dst, true)
	default:
		return decodeJSON(r, dst)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode JSON body: %w", err)
	}
	return nil
}

func decodeForm(r *http.Request, dst any, multipart bool) error {
	var err error
	if multipart {
		err = r.ParseMultipartForm(maxRequestBodySize)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return fmt.Errorf("failed to parse form body: %w", err)
	}

	fields := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	// jsonタグを共有するため、一度JSONを経由して構造体に割り当てる
	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode form fields: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("failed to decode form fields: %w", err)
	}
	return nil
}
