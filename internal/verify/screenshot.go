package verify

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
)

// RGBColor is a color with 0..255 components.
type RGBColor struct {
	Red   float64 `yaml:"red" json:"red"`
	Green float64 `yaml:"green" json:"green"`
	Blue  float64 `yaml:"blue" json:"blue"`
}

// ParseRGBColor parses a CSS rgb(r, g, b) value.
func ParseRGBColor(value string) (RGBColor, error) {
	var parsed RGBColor
	if _, scanErr := fmt.Sscanf(value, "rgb(%f, %f, %f)", &parsed.Red, &parsed.Green, &parsed.Blue); scanErr != nil {
		return RGBColor{}, fmt.Errorf("%w: %q", ErrInvalidColor, value)
	}
	return parsed, nil
}

// ColorPresence requires a share of the region's pixels to be within tolerance of a color.
type ColorPresence struct {
	Color        RGBColor `yaml:"color" json:"color"`
	Tolerance    float64  `yaml:"tolerance" json:"tolerance"`
	MinimumRatio float64  `yaml:"minimum_ratio" json:"minimum_ratio"`
}

// ScreenshotExpectation describes what a rendered region must look like. A region with no
// variance is blank.
type ScreenshotExpectation struct {
	MinimumVariance float64         `yaml:"minimum_variance" json:"minimum_variance"`
	ColorPresence   []ColorPresence `yaml:"color_presence" json:"color_presence"`
}

// AssertScreenshotRegion decodes a PNG screenshot and checks the region. An empty region
// checks the whole image.
func AssertScreenshotRegion(screenshot []byte, region image.Rectangle, expectation ScreenshotExpectation) error {
	decodedImage, decodeErr := png.Decode(bytes.NewReader(screenshot))
	if decodeErr != nil {
		return fmt.Errorf("%s: %w", errorMessageDecodeImage, decodeErr)
	}
	imageBounds := decodedImage.Bounds()
	if region.Empty() {
		region = imageBounds
	}
	region = region.Intersect(imageBounds)
	if region.Empty() {
		return ErrEmptyRegion
	}

	luminanceVariance := RegionLuminanceVariance(decodedImage, region)
	if luminanceVariance < expectation.MinimumVariance {
		return mismatch(checkLuminanceVariance, fmt.Sprintf(">= %g", expectation.MinimumVariance), fmt.Sprintf("%g", luminanceVariance))
	}
	for _, presence := range expectation.ColorPresence {
		colorRatio := ColorPresenceRatio(decodedImage, region, presence.Color, presence.Tolerance)
		if colorRatio < presence.MinimumRatio {
			return mismatch(checkColorPresence, fmt.Sprintf("%v >= %g", presence.Color, presence.MinimumRatio), fmt.Sprintf("%g", colorRatio))
		}
	}
	return nil
}

// RegionLuminanceVariance returns the variance of relative luminance over the region.
func RegionLuminanceVariance(source image.Image, region image.Rectangle) float64 {
	pixelCount := region.Dx() * region.Dy()
	if pixelCount <= 0 {
		return 0
	}
	var luminanceSum float64
	var luminanceSquaredSum float64
	for coordinateY := region.Min.Y; coordinateY < region.Max.Y; coordinateY++ {
		for coordinateX := region.Min.X; coordinateX < region.Max.X; coordinateX++ {
			redComponent, greenComponent, blueComponent, _ := source.At(coordinateX, coordinateY).RGBA()
			luminance := relativeLuminance(redComponent, greenComponent, blueComponent)
			luminanceSum += luminance
			luminanceSquaredSum += luminance * luminance
		}
	}
	meanLuminance := luminanceSum / float64(pixelCount)
	variance := (luminanceSquaredSum / float64(pixelCount)) - (meanLuminance * meanLuminance)
	if variance < 0 {
		return 0
	}
	return variance
}

// ColorPresenceRatio returns the share of region pixels within tolerance of target.
func ColorPresenceRatio(source image.Image, region image.Rectangle, target RGBColor, tolerance float64) float64 {
	pixelCount := region.Dx() * region.Dy()
	if pixelCount <= 0 {
		return 0
	}
	var matchingPixels int
	for coordinateY := region.Min.Y; coordinateY < region.Max.Y; coordinateY++ {
		for coordinateX := region.Min.X; coordinateX < region.Max.X; coordinateX++ {
			actualColor := rgbComponents(source.At(coordinateX, coordinateY))
			if math.Abs(actualColor.Red-target.Red) <= tolerance &&
				math.Abs(actualColor.Green-target.Green) <= tolerance &&
				math.Abs(actualColor.Blue-target.Blue) <= tolerance {
				matchingPixels++
			}
		}
	}
	return float64(matchingPixels) / float64(pixelCount)
}

func relativeLuminance(red uint32, green uint32, blue uint32) float64 {
	normalizedRed := float64(red) / 65535.0
	normalizedGreen := float64(green) / 65535.0
	normalizedBlue := float64(blue) / 65535.0
	return (0.2126 * normalizedRed) + (0.7152 * normalizedGreen) + (0.0722 * normalizedBlue)
}

func rgbComponents(value color.Color) RGBColor {
	redComponent, greenComponent, blueComponent, _ := value.RGBA()
	return RGBColor{
		Red:   float64(redComponent) / 257.0,
		Green: float64(greenComponent) / 257.0,
		Blue:  float64(blueComponent) / 257.0,
	}
}
