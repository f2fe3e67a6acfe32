package types

import "fmt"

// DataSource represents the origin of extracted document content
type DataSource string

const (
	DataSourceAudio  DataSource = "audio"
	DataSourceVideo  DataSource = "video"
	DataSourceImage  DataSource = "image"
	DataSourceUFED   DataSource = "ufed_extraction"
	DataSourceOthers DataSource = "others"
)

// AllDataSources returns all valid data sources
func AllDataSources() []DataSource {
	return []DataSource{
		DataSourceAudio,
		DataSourceVideo,
		DataSourceImage,
		DataSourceUFED,
		DataSourceOthers,
	}
}

// IsValid checks if the data source is one of the supported values
func (s DataSource) IsValid() bool {
	switch s {
	case DataSourceAudio,
		DataSourceVideo,
		DataSourceImage,
		DataSourceUFED,
		DataSourceOthers:
		return true
	default:
		return false
	}
}

// String returns the string representation of the data source
func (s DataSource) String() string {
	return string(s)
}

// ParseDataSource parses a string into a DataSource
func ParseDataSource(s string) (DataSource, error) {
	src := DataSource(s)
	if !src.IsValid() {
		return "", fmt.Errorf("invalid data source: %s", s)
	}
	return src, nil
}
