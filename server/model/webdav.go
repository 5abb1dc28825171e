package model

import "encoding/xml"

const (
	StatusOK = "HTTP/1.1 200 OK"
)

// Multistatus 是 WebDAV 返回的根结构
type Multistatus struct {
	XMLName   xml.Name    `xml:"D:multistatus"`
	XMLNS     string      `xml:"xmlns:D,attr"`
	Responses []*Response `xml:"D:response"`
}

// Response 代表每个文件或目录的信息
type Response struct {
	Href     string   `xml:"D:href"`
	Propstat Propstat `xml:"D:propstat"`
}

type Propstat struct {
	Prop   Prop   `xml:"D:prop"`
	Status string `xml:"D:status"`
}

type Prop struct {
	DisplayName   string       `xml:"D:displayname"`
	CreationDate  string       `xml:"D:creationdate,omitempty"`
	LastModified  string       `xml:"D:getlastmodified,omitempty"`
	ContentLength *int64       `xml:"D:getcontentlength,omitempty"`
	ContentType   string       `xml:"D:getcontenttype,omitempty"`
	ETag          string       `xml:"D:getetag,omitempty"`
	ResourceType  ResourceType `xml:"D:resourcetype"`
}

// ResourceType 用于区分文件和目录, 目录时 Collection 非 nil
type ResourceType struct {
	Collection *struct{} `xml:"D:collection,omitempty"`
}
