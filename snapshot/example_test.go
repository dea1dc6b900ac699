package snapshot_test

import (
	"bytes"
	"fmt"
	"log"

	"github.com/mrjoshuak/go-deepimage/deep"
	"github.com/mrjoshuak/go-deepimage/snapshot"
)

func ExampleEncode() {
	img := deep.New(2, 1, 3)
	copy(img.Data(), []float32{1, 2, 3, 4, 5, 6})

	var buf bytes.Buffer
	if err := snapshot.Encode(&buf, img, snapshot.DefaultOptions()); err != nil {
		log.Fatal(err)
	}

	got, err := snapshot.Decode(&buf)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(got.Shape(), got.Pixel(1))
	// Output: 2x1x3 [4 5 6]
}
